package metrics

type Config struct {
	ListenAddr string `yaml:"ListenAddr"`
	Path       string `yaml:"Path"`
	PushURL    string `yaml:"PushURL"`
	Job        string `yaml:"Job"`
}

const (
	DefaultPath = "/metrics"
	DefaultJob  = "remofan"
)

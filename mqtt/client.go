package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-logr/logr"
)

const (
	CommandTopicPrefix = "remo/command/"
	StatusTopicPrefix  = "remo/status/"
)

// Config holds MQTT configuration
type Config struct {
	Broker   string `yaml:"Broker"`
	Port     int    `yaml:"Port"`
	Username string `yaml:"Username"`
	Password string `yaml:"Password"`
	ClientID string `yaml:"ClientID"`
}

// Client wraps MQTT client functionality
type Client struct {
	client      mqtt.Client
	config      Config
	commandChan chan Command
	log         logr.Logger
}

// Command asks for a signal to be dispatched to an appliance
type Command struct {
	ApplianceID string `json:"appliance_id"` // appliance ID or nickname
	Button      string `json:"button"`       // signal name pattern
	Type        string `json:"type"`         // "cloud" or "local"
}

// Status reports the outcome of a Command. Dispatched only means the hub
// accepted the request; infrared gives no feedback from the device.
type Status struct {
	ApplianceID string    `json:"appliance_id"`
	SignalID    string    `json:"signal_id,omitempty"`
	SignalName  string    `json:"signal_name,omitempty"`
	Surface     string    `json:"surface"`
	Dispatched  bool      `json:"dispatched"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// CommandHandler defines the interface for handling MQTT commands
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd Command) error
}

// NewClient creates a new MQTT client
func NewClient(config Config, log logr.Logger) *Client {
	log = log.WithName("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", config.Broker, config.Port))
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetDefaultPublishHandler(func(client mqtt.Client, msg mqtt.Message) {
		log.V(1).Info("Received message", "topic", msg.Topic(), "payload", string(msg.Payload()))
	})
	opts.SetPingTimeout(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Error(err, "MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info("MQTT connected")
	})

	return &Client{
		client:      mqtt.NewClient(opts),
		config:      config,
		commandChan: make(chan Command, 100),
		log:         log,
	}
}

// Connect establishes connection to MQTT broker
func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	c.log.Info("Connected to MQTT broker", "broker", c.config.Broker, "port", c.config.Port)
	return nil
}

// Disconnect closes the connection to MQTT broker
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// ParseCommand builds a Command from a message on remo/command/{appliance}.
func ParseCommand(topic string, payload []byte) (Command, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] == "" {
		return Command{}, fmt.Errorf("invalid command topic format: %s", topic)
	}

	var body struct {
		Button string `json:"button"`
		Type   string `json:"type,omitempty"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &body); err != nil {
			return Command{}, fmt.Errorf("failed to parse command payload: %w", err)
		}
	}
	return Command{ApplianceID: parts[2], Button: body.Button, Type: body.Type}, nil
}

// SubscribeCommands subscribes to command topics and starts processing
func (c *Client) SubscribeCommands(ctx context.Context, handler CommandHandler) error {
	commandTopic := CommandTopicPrefix + "+"

	token := c.client.Subscribe(commandTopic, 1, func(client mqtt.Client, msg mqtt.Message) {
		command, err := ParseCommand(msg.Topic(), msg.Payload())
		if err != nil {
			c.log.Error(err, "Dropping command")
			return
		}

		select {
		case c.commandChan <- command:
		default:
			c.log.Info("Command channel full, dropping command", "appliance", command.ApplianceID)
		}
	})

	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to commands: %w", token.Error())
	}

	c.log.Info("Subscribed to MQTT command topic", "topic", commandTopic)

	go c.processCommands(ctx, handler)

	return nil
}

// processCommands handles incoming commands one at a time
func (c *Client) processCommands(ctx context.Context, handler CommandHandler) {
	for {
		select {
		case cmd := <-c.commandChan:
			if err := handler.HandleCommand(ctx, cmd); err != nil {
				c.log.Error(err, "Failed to handle command", "appliance", cmd.ApplianceID, "button", cmd.Button)
			} else {
				c.log.Info("Handled command", "appliance", cmd.ApplianceID, "button", cmd.Button)
			}
		case <-ctx.Done():
			return
		}
	}
}

// PublishCommand publishes command
func (c *Client) PublishCommand(cmd Command) error {
	topic := CommandTopicPrefix + cmd.ApplianceID

	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	token := c.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish command: %w", token.Error())
	}

	c.log.Info("Published command", "appliance", cmd.ApplianceID, "button", cmd.Button)
	return nil
}

// PublishStatus publishes the outcome of a command
func (c *Client) PublishStatus(status Status) error {
	topic := StatusTopicPrefix + status.ApplianceID

	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	token := c.client.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish status: %w", token.Error())
	}

	c.log.Info("Published status", "appliance", status.ApplianceID, "dispatched", status.Dispatched)
	return nil
}

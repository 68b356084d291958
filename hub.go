package controlremo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eivy/remo-fan-power/ir"
	"github.com/go-logr/logr"
	"github.com/tenntenn/natureremo"
)

// DefaultCloudURL is the cloud surface root; the API version is appended to it.
const DefaultCloudURL = "https://api.nature.global/"

const (
	apiVersion  = "1"
	signalImage = "ico_io"
)

// Hub is the part of the cloud surface the resolver and dispatcher use.
type Hub interface {
	Appliances(ctx context.Context) ([]*natureremo.Appliance, error)
	Signals(ctx context.Context, appliance *natureremo.Appliance) ([]*natureremo.Signal, error)
	CreateSignal(ctx context.Context, appliance *natureremo.Appliance, name string, raw ir.Signal) (*natureremo.Signal, error)
	SendSignal(ctx context.Context, signal *natureremo.Signal) error
}

// Cloud is the bearer token authenticated surface.
type Cloud struct {
	client *natureremo.Client
	log    logr.Logger
}

// NewCloud opens a session on baseURL (DefaultCloudURL when empty).
func NewCloud(token, baseURL string, opts TransportOptions, log logr.Logger) (*Cloud, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if baseURL == "" {
		baseURL = DefaultCloudURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	log = log.WithName("cloud")

	cli := natureremo.NewClient(token)
	cli.HTTPClient = NewHTTPClient(opts, log)
	// paths are joined with "/", so the root carries no trailing slash
	cli.BaseURL = baseURL + apiVersion

	return &Cloud{client: cli, log: log}, nil
}

// wrap maps a rejected token to ErrUnauthorized, from the status of the
// failed call itself.
func (c *Cloud) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *natureremo.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Cloud) Appliances(ctx context.Context) ([]*natureremo.Appliance, error) {
	as, err := c.client.ApplianceService.GetAll(ctx)
	if err != nil {
		return nil, c.wrap("list appliances", err)
	}
	c.log.V(1).Info("Listed appliances", "count", len(as))
	return as, nil
}

func (c *Cloud) Signals(ctx context.Context, appliance *natureremo.Appliance) ([]*natureremo.Signal, error) {
	ss, err := c.client.SignalService.GetAll(ctx, appliance)
	if err != nil {
		return nil, c.wrap("list signals of "+appliance.ID, err)
	}
	c.log.V(1).Info("Listed signals", "appliance", appliance.ID, "count", len(ss))
	return ss, nil
}

func (c *Cloud) SendSignal(ctx context.Context, signal *natureremo.Signal) error {
	return c.wrap("send signal "+signal.ID, c.client.SignalService.Send(ctx, signal))
}

// CreateSignal stores raw under appliance. The record travels as a JSON
// string in the "message" form field.
func (c *Cloud) CreateSignal(ctx context.Context, appliance *natureremo.Appliance, name string, raw ir.Signal) (*natureremo.Signal, error) {
	msg, err := toRemo(raw)
	if err != nil {
		return nil, err
	}
	s, err := c.client.SignalService.New(ctx, appliance, msg, name, signalImage)
	if err != nil {
		return nil, c.wrap("create signal", err)
	}
	if s.ID == "" {
		return nil, errors.New("create signal: hub returned no id")
	}
	c.log.Info("Created signal", "appliance", appliance.ID, "id", s.ID, "name", s.Name)
	return s, nil
}

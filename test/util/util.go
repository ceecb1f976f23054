// Package util provides helpers for the container-backed tests: a disposable
// Mosquitto broker, an MQTT topic listener and a Prometheus metric poller.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MosquittoReadyTimeout = 5 * time.Second
	MetricTimeout         = 5 * time.Second
	MessageTimeout        = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
log_dest stdout
log_type error
log_type warning
`

// Mosquitto starts an eclipse-mosquitto container for the duration of the
// test and returns its broker URL. The test is skipped when docker is not
// available.
func Mosquitto(t testing.TB) string {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	conf := filepath.Join(t.TempDir(), "mosquitto.conf")
	if err := os.WriteFile(conf, []byte(mosquittoConf), 0o644); err != nil {
		t.Fatalf("write mosquitto config: %v", err)
	}

	ctx := context.Background()
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				HostFilePath:      conf,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("mosquitto container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	endpoint, err := cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		t.Fatalf("broker endpoint: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := waitForBroker(waitCtx, endpoint); err != nil {
		t.Fatalf("broker not ready: %v", err)
	}
	return endpoint
}

func waitForBroker(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	for {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ctx.Err(), token.Error())
		case <-time.After(pollInterval):
		}
	}
}

// Listen subscribes to topic for the duration of the test. Payloads that do
// not fit the buffer are dropped.
func Listen(t testing.TB, broker, topic string) <-chan []byte {
	t.Helper()
	msgs := make(chan []byte, 16)
	cli := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("listener-" + strings.ReplaceAll(topic, "/", "-")))
	if tok := cli.Connect(); !tok.WaitTimeout(MessageTimeout) || tok.Error() != nil {
		t.Fatalf("listener connect: %v", tok.Error())
	}
	t.Cleanup(func() { cli.Disconnect(100) })
	tok := cli.Subscribe(topic, 1, func(_ paho.Client, m paho.Message) {
		select {
		case msgs <- m.Payload():
		default:
		}
	})
	if !tok.WaitTimeout(MessageTimeout) || tok.Error() != nil {
		t.Fatalf("subscribe %s: %v", topic, tok.Error())
	}
	return msgs
}

// Next returns the next payload from ch or fails the test after
// MessageTimeout.
func Next(t testing.TB, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(MessageTimeout):
		t.Fatal("no MQTT message received")
		return nil
	}
}

// WaitForMetric polls metricsURL until substr appears in the exposition or
// ctx is done.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if rerr != nil {
				return fmt.Errorf("read metrics body: %w", rerr)
			}
			if strings.Contains(string(body), substr) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found: %w", substr, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

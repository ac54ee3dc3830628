package bootstrap

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/pagestream/component"
	"github.com/kbukum/pagestream/config"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	started  bool
	stopped  bool
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	m.started = true
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	m.stopped = true
	*m.events = append(*m.events, "stop:"+m.name)
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) component.Health {
	return component.Health{Name: m.name, Status: component.StatusHealthy}
}

func (m *mockComponent) Describe() component.Description {
	return component.Description{Name: m.name, Type: "mock", Details: "detail-" + m.name}
}

func newTestApp(t *testing.T, out *bytes.Buffer) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "scan", Version: "1.2.3"}}
	app, err := NewApp(cfg, WithLogger(logger.Nop()), WithSummaryWriter(out))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestNewApp_ValidatesConfig(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.Nop()))
	if errors.Code(err) != errors.ErrCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG for missing name, got %v", err)
	}
}

func TestNewApp_AppliesDefaults(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	if app.Cfg.Environment != "development" || app.Name != "scan" || app.Version != "1.2.3" {
		t.Fatalf("unexpected app %+v", app.Cfg.ServiceConfig)
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, &out)
	var events []string
	a := &mockComponent{name: "a", events: &events}
	b := &mockComponent{name: "b", events: &events}
	for _, c := range []component.Component{a, b} {
		if err := app.RegisterComponent(c); err != nil {
			t.Fatal(err)
		}
	}
	app.OnStart(func(context.Context) error {
		events = append(events, "onstart")
		return nil
	})
	app.OnStop(func(context.Context) error {
		events = append(events, "onstop")
		return nil
	})
	app.Summary.TrackStream("keys", "redis", "match=*")

	err := app.RunTask(context.Background(), func(context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}

	want := []string{"start:a", "start:b", "onstart", "task", "onstop", "stop:b", "stop:a"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", events, want)
	}
	summary := out.String()
	for _, s := range []string{"scan 1.2.3", "a [healthy] detail-a", "keys (redis) match=*"} {
		if !strings.Contains(summary, s) {
			t.Errorf("summary missing %q:\n%s", s, summary)
		}
	}
}

func TestRunTask_TaskErrorWins(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "a", stopErr: stderrors.New("stop"), events: &events})

	taskErr := stderrors.New("task failed")
	if err := app.RunTask(context.Background(), func(context.Context) error { return taskErr }); err != taskErr {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestRunTask_StopErrorReported(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	var events []string
	_ = app.RegisterComponent(&mockComponent{name: "a", stopErr: stderrors.New("stop"), events: &events})

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected shutdown error")
	}
}

func TestRunTask_StartFailureSkipsTask(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	var events []string
	a := &mockComponent{name: "a", events: &events}
	b := &mockComponent{name: "b", startErr: stderrors.New("down"), events: &events}
	_ = app.RegisterComponent(a)
	_ = app.RegisterComponent(b)

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if errors.Code(err) != errors.ErrCodeConnectionFailed {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
	if ran {
		t.Fatal("task must not run when a component fails to start")
	}
	if !a.stopped {
		t.Fatal("started component must be stopped again")
	}
}

func TestRunTask_ContextCancelled(t *testing.T) {
	app := newTestApp(t, &bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := app.RunTask(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

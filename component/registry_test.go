package component

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

func init() {
	logger.SetGlobalLogger(logger.Nop())
}

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.log = append(*f.log, "start:"+f.name)
	return nil
}

func (f *fakeComponent) Stop(context.Context) error {
	*f.log = append(*f.log, "stop:"+f.name)
	return f.stopErr
}

func (f *fakeComponent) Health(context.Context) Health {
	return Health{Name: f.name, Status: StatusHealthy}
}

func (f *fakeComponent) Describe() Description {
	return Description{Type: "fake", Details: f.name + " details"}
}

func TestRegistry_Lifecycle(t *testing.T) {
	var calls []string
	r := NewRegistry()
	for _, name := range []string{"a", "b", "c"} {
		if err := r.Register(&fakeComponent{name: name, log: &calls}); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatal(err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	var calls []string
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", log: &calls})
	err := r.Register(&fakeComponent{name: "a", log: &calls})
	if errors.Code(err) != errors.ErrCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestRegistry_StartFailureStopsStarted(t *testing.T) {
	var calls []string
	boom := stderrors.New("refused")
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", log: &calls})
	_ = r.Register(&fakeComponent{name: "b", startErr: boom, log: &calls})
	_ = r.Register(&fakeComponent{name: "c", log: &calls})

	err := r.StartAll(context.Background())
	if errors.Code(err) != errors.ErrCodeConnectionFailed || !stderrors.Is(err, boom) {
		t.Fatalf("expected CONNECTION_FAILED wrapping refused, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "start:a" || calls[1] != "stop:a" {
		t.Fatalf("calls = %v", calls)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("second stop must be a no-op, got %v", err)
	}
}

func TestRegistry_StopErrorsJoined(t *testing.T) {
	var calls []string
	r := NewRegistry()
	_ = r.Register(&fakeComponent{name: "a", stopErr: stderrors.New("a"), log: &calls})
	_ = r.Register(&fakeComponent{name: "b", stopErr: stderrors.New("b"), log: &calls})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(calls) != 4 {
		t.Errorf("every component must be stopped, calls = %v", calls)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	var calls []string
	r := NewRegistry()
	a := &fakeComponent{name: "a", log: &calls}
	_ = r.Register(a)

	if r.Get("a") != a || r.Get("missing") != nil {
		t.Error("unexpected Get result")
	}
	if len(r.All()) != 1 {
		t.Errorf("All = %v", r.All())
	}
	health := r.HealthAll(context.Background())
	if len(health) != 1 || health[0].Status != StatusHealthy {
		t.Errorf("health = %v", health)
	}
}

func TestDescribe(t *testing.T) {
	var calls []string
	d := Describe(&fakeComponent{name: "a", log: &calls})
	if d.Name != "a" || d.Type != "fake" {
		t.Errorf("got %+v", d)
	}
}

type bareComponent struct{}

func (bareComponent) Name() string                  { return "bare" }
func (bareComponent) Start(context.Context) error   { return nil }
func (bareComponent) Stop(context.Context) error    { return nil }
func (bareComponent) Health(context.Context) Health { return Health{Name: "bare"} }

func TestDescribe_FallsBackToName(t *testing.T) {
	if d := Describe(bareComponent{}); d.Name != "bare" || d.Type != "" {
		t.Errorf("got %+v", d)
	}
}

package drift

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/model"
	"gatecontrol-hq/gatecontrol/pkg/publisher"
	"gatecontrol-hq/gatecontrol/pkg/store"
)

type fixture struct {
	store     *store.Store
	writer    *publisher.FileWriter
	publisher *publisher.Publisher
	envID     string
	routeID   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	snap, err := store.NewFileSnapshotter(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("NewFileSnapshotter() failed: %v", err)
	}
	s, err := store.New(ctx, snap)
	if err != nil {
		t.Fatalf("store.New() failed: %v", err)
	}

	env, err := s.UpsertEnvironment(ctx, model.NewEnvironment())
	if err != nil {
		t.Fatalf("UpsertEnvironment() failed: %v", err)
	}
	r := model.NewRoute()
	r.EnvironmentID = env.ID
	r.UpstreamPathTemplate = "/a"
	r.DownstreamPathTemplate = "/a"
	r.DownstreamHostAndPorts = []model.HostAndPort{{Host: "a", Port: 80}}
	r, err = s.UpsertRoute(ctx, r)
	if err != nil {
		t.Fatalf("UpsertRoute() failed: %v", err)
	}

	w := publisher.NewFileWriter(t.TempDir(), "ocelot.json")
	return &fixture{
		store:     s,
		writer:    w,
		publisher: publisher.New(s, w),
		envID:     env.ID,
		routeID:   r.ID,
	}
}

func (f *fixture) publish(t *testing.T) {
	t.Helper()
	rec, err := f.publisher.Publish(context.Background(), publisher.Request{EnvironmentID: f.envID})
	if err != nil || rec.Status != model.PublishSucceeded {
		t.Fatalf("Publish() failed: status=%s err=%v", rec.Status, err)
	}
}

func TestDetector_Check(t *testing.T) {
	f := newFixture(t)
	d := NewDetector(f.store, f.writer, nil)
	ctx := context.Background()

	report, err := d.Check(ctx, f.envID)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if report.Tampered || !report.Pending {
		t.Errorf("never published: expected pending only, got %+v", report)
	}

	f.publish(t)
	report, err = d.Check(ctx, f.envID)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if report.Drifted() {
		t.Errorf("fresh publish should be clean, got %+v", report)
	}
	if report.FileHash != report.PublishedHash || report.ModelHash != report.PublishedHash {
		t.Errorf("hashes should agree: %+v", report)
	}

	r, _ := f.store.Route(f.routeID)
	r.Priority = 9
	if _, err := f.store.UpsertRoute(ctx, r); err != nil {
		t.Fatalf("UpsertRoute() failed: %v", err)
	}
	report, _ = d.Check(ctx, f.envID)
	if !report.Pending || report.Tampered {
		t.Errorf("model change: expected pending only, got %+v", report)
	}

	if err := os.WriteFile(report.Path, []byte(`{"Routes":[]}`), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	report, _ = d.Check(ctx, f.envID)
	if !report.Tampered {
		t.Errorf("manual edit should be reported as tampered, got %+v", report)
	}

	if err := os.Remove(report.Path); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	report, _ = d.Check(ctx, f.envID)
	if !report.Tampered || report.FileExists {
		t.Errorf("deleted file should be reported as tampered, got %+v", report)
	}
}

func TestDetector_UnknownEnvironment(t *testing.T) {
	f := newFixture(t)
	d := NewDetector(f.store, f.writer, nil)
	if _, err := d.Check(context.Background(), "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDetector_CheckAll(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.UpsertEnvironment(context.Background(), model.NewEnvironment()); err != nil {
		t.Fatalf("UpsertEnvironment() failed: %v", err)
	}
	d := NewDetector(f.store, f.writer, nil)
	if got := len(d.CheckAll(context.Background())); got != 2 {
		t.Errorf("expected 2 reports, got %d", got)
	}
}

func TestWatcher_DetectsTampering(t *testing.T) {
	f := newFixture(t)
	f.publish(t)

	d := NewDetector(f.store, f.writer, nil)
	w, err := NewWatcher(d, f.writer.Root(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	reports := make(chan Report, 16)
	w.OnCheck(func(r Report) {
		select {
		case reports <- r:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := w.Watch(ctx); err != nil {
			t.Errorf("Watch() failed: %v", err)
		}
	}()
	defer w.Stop()

	path := f.writer.Path(f.envID)
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case r := <-reports:
			if r.Tampered && r.EnvironmentID == f.envID {
				return
			}
		case <-tick.C:
			// Keep editing until the watcher has registered the directory.
			if err := os.WriteFile(path, []byte(`{"edited":true}`), 0o644); err != nil {
				t.Fatalf("WriteFile() failed: %v", err)
			}
		case <-deadline:
			t.Fatal("watcher did not report tampering")
		}
	}
}

func TestScheduler(t *testing.T) {
	f := newFixture(t)
	d := NewDetector(f.store, f.writer, nil)

	if err := NewScheduler(d, "not a schedule").Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}

	disabled := NewScheduler(d, "")
	if err := disabled.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if disabled.IsRunning() {
		t.Error("empty schedule should not start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewScheduler(d, "*/5 * * * *")
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}
	if next := s.NextRun(); next == nil || next.Before(time.Now()) {
		t.Errorf("unexpected next run %v", next)
	}
	s.run(ctx)
	s.Stop()
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

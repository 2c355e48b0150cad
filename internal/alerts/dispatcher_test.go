package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/preacpe/go-frost-alerts/internal/features"
	"github.com/preacpe/go-frost-alerts/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSender struct {
	mu     sync.Mutex
	phones []string
}

func (r *recordingSender) SendFrostAlert(_ context.Context, phone string, _ models.Prediction, _ features.Meta) (models.SMSResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phones = append(r.phones, phone)
	return models.SMSResult{Success: true, Phone: phone}, nil
}

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.phones))
	copy(out, r.phones)
	return out
}

type staticRepo struct {
	subs []models.Subscriber
	err  error
}

func (s *staticRepo) Subscribe(_ context.Context, phone, name string) (*models.Subscriber, bool, error) {
	return &models.Subscriber{Phone: phone, Name: name}, false, nil
}

func (s *staticRepo) Unsubscribe(_ context.Context, _ string) (bool, error) { return false, nil }

func (s *staticRepo) GetByPhone(_ context.Context, _ string) (*models.Subscriber, error) {
	return nil, nil
}

func (s *staticRepo) List(_ context.Context) ([]models.Subscriber, error) {
	return s.subs, s.err
}

func TestDispatcher_BroadcastFrost(t *testing.T) {
	sender := &recordingSender{}
	repo := &staticRepo{subs: []models.Subscriber{
		{Phone: "+51911111111"},
		{Phone: "+51922222222"},
		{Phone: "+51933333333"},
	}}

	d := NewDispatcher(2, 10, sender, repo)
	d.Start(context.Background())

	pred := models.Prediction{Risk: 0.95, RiskLevel: models.RiskLevelHigh, Threshold: 0.9}
	queued, err := d.BroadcastFrost(context.Background(), pred, features.Meta{TargetHour: "2025-06-14T05:00"})
	if err != nil {
		t.Fatalf("BroadcastFrost failed: %v", err)
	}
	if queued != 3 {
		t.Errorf("expected 3 queued, got %d", queued)
	}

	d.Stop()

	sent := sender.sent()
	if len(sent) != 3 {
		t.Fatalf("expected 3 alerts sent after Stop, got %d", len(sent))
	}
	seen := map[string]bool{}
	for _, p := range sent {
		seen[p] = true
	}
	for _, sub := range repo.subs {
		if !seen[sub.Phone] {
			t.Errorf("no alert sent to %s", sub.Phone)
		}
	}
}

func TestDispatcher_BroadcastRepoError(t *testing.T) {
	sender := &recordingSender{}
	repo := &staticRepo{err: errors.New("db closed")}

	d := NewDispatcher(1, 1, sender, repo)
	d.Start(context.Background())
	defer d.Stop()

	if _, err := d.BroadcastFrost(context.Background(), models.Prediction{}, features.Meta{}); err == nil {
		t.Fatal("expected error from repository")
	}
	if len(sender.sent()) != 0 {
		t.Error("no alerts should be sent when the listing fails")
	}
}

func TestDispatcher_EmptySubscriberList(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(1, 1, sender, &staticRepo{})
	d.Start(context.Background())

	queued, err := d.BroadcastFrost(context.Background(), models.Prediction{}, features.Meta{})
	if err != nil {
		t.Fatalf("BroadcastFrost failed: %v", err)
	}
	if queued != 0 {
		t.Errorf("expected 0 queued, got %d", queued)
	}

	d.Stop()
}

package store

import "testing"

func TestCreateSubscription(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	sub, err := ps.CreateSubscription("https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Kitchen tablet")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Kitchen tablet" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Kitchen tablet")
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	sub1, _ := ps.CreateSubscription("https://push.example.com/sub1", "key1", "auth1", "Device A")
	sub2, err := ps.CreateSubscription("https://push.example.com/sub1", "key2", "auth2", "Device B")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}
	if sub2.ID != sub1.ID {
		t.Errorf("expected same ID on upsert, got %d != %d", sub2.ID, sub1.ID)
	}
	if sub2.P256dhKey != "key2" {
		t.Errorf("p256dh = %q, want %q", sub2.P256dhKey, "key2")
	}
}

func TestListAndDeleteSubscriptions(t *testing.T) {
	ps := NewPushStore(setupTestDB(t))

	ps.CreateSubscription("https://push.example.com/a", "k", "a", "A")
	ps.CreateSubscription("https://push.example.com/b", "k", "a", "B")

	subs, err := ps.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}

	if err := ps.DeleteByEndpoint("https://push.example.com/a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	subs, _ = ps.List()
	if len(subs) != 1 || subs[0].DeviceName != "B" {
		t.Errorf("after delete = %+v", subs)
	}

	gone, err := ps.GetByEndpoint("https://push.example.com/a")
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if gone != nil {
		t.Error("expected nil for deleted endpoint")
	}
}

package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestPayloadRoundTrip(t *testing.T) {
	tests := []string{
		`{"title":"Hi","body":"There","data":{"url":"/agenda"}}`,
		`{"title":"Hi","body":"There","icon":"/i.png","badge":"/b.png","image":"/x.jpg","vibrate":[100,50,100],"data":{"url":"/"},"actions":[{"action":"open","title":"Open"}]}`,
		`{"title":"Hi","body":"There","data":{"url":""}}`,
		`{"title":"Hi","body":"There","vibrate":[],"data":{"url":"/"},"actions":[]}`,
		`{"title":"Hi","body":"There","vibrate":[],"data":{"url":"/"}}`,
	}

	for _, raw := range tests {
		var p Payload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		out, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(out) != raw {
			t.Errorf("round trip mismatch\n got  %s\n want %s", out, raw)
		}
	}
}

func TestPayloadEmptyArraysSurviveStorage(t *testing.T) {
	const raw = `{"title":"Hi","body":"There","data":{"url":"/"},"actions":[]}`
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	v, err := p.Value()
	if err != nil {
		t.Fatal(err)
	}
	var back Payload
	if err := back.Scan(v); err != nil {
		t.Fatal(err)
	}
	if back.Actions == nil || len(back.Actions) != 0 {
		t.Errorf("actions = %#v, want empty non-nil slice", back.Actions)
	}
	if back.Vibrate != nil {
		t.Errorf("vibrate = %#v, want nil", back.Vibrate)
	}
}

func TestValidatePayloadJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "minimal", raw: `{"title":"a","body":"b","data":{"url":"/"}}`},
		{name: "missing data", raw: `{"title":"a","body":"b"}`, wantErr: true},
		{name: "missing url", raw: `{"title":"a","body":"b","data":{}}`, wantErr: true},
		{name: "empty title", raw: `{"title":"","body":"b","data":{"url":"/"}}`, wantErr: true},
		{name: "unknown field", raw: `{"title":"a","body":"b","data":{"url":"/"},"sound":"ding"}`, wantErr: true},
		{name: "negative vibrate", raw: `{"title":"a","body":"b","data":{"url":"/"},"vibrate":[-1]}`, wantErr: true},
		{name: "action without title", raw: `{"title":"a","body":"b","data":{"url":"/"},"actions":[{"action":"x"}]}`, wantErr: true},
		{name: "not json", raw: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayloadJSON([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestPayloadScanValue(t *testing.T) {
	in := Payload{Title: "t", Body: "b", Data: PayloadData{URL: "/x"}}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out Payload
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Title != "t" || out.Data.URL != "/x" {
		t.Errorf("scan = %+v", out)
	}
	if err := out.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

func TestScheduledNotificationDue(t *testing.T) {
	now := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		n    ScheduledNotification
		want bool
	}{
		{name: "past pending", n: ScheduledNotification{Status: StatusPending, ScheduledFor: now.Add(-5 * time.Minute)}, want: true},
		{name: "exactly now", n: ScheduledNotification{Status: StatusPending, ScheduledFor: now}, want: true},
		{name: "future", n: ScheduledNotification{Status: StatusPending, ScheduledFor: now.Add(time.Minute)}},
		{name: "already sent", n: ScheduledNotification{Status: StatusSent, ScheduledFor: now.Add(-time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.Due(now); got != tt.want {
				t.Errorf("Due() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionValidate(t *testing.T) {
	tests := []struct {
		name    string
		sub     PushSubscription
		wantErr bool
	}{
		{name: "web push", sub: PushSubscription{Endpoint: "https://fcm.googleapis.com/fcm/send/abc", P256dh: "k", Auth: "a", UserID: "u1"}},
		{name: "sns arn", sub: PushSubscription{Endpoint: "arn:aws:sns:eu-west-1:123:endpoint/GCM/app/x", UserID: "u1"}},
		{name: "http endpoint", sub: PushSubscription{Endpoint: "http://insecure", P256dh: "k", Auth: "a", UserID: "u1"}, wantErr: true},
		{name: "missing keys", sub: PushSubscription{Endpoint: "https://push.example/x", UserID: "u1"}, wantErr: true},
		{name: "missing user", sub: PushSubscription{Endpoint: "https://push.example/x", P256dh: "k", Auth: "a"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sub.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

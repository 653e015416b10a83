package storage

import (
	"context"
	"encoding/json"
	"testing"

	"notibot/pkg/logx"
)

func TestFileStoreRoundTrip(t *testing.T) {
	st, err := Open(Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	doc := map[string]any{"webhooks": []any{}, "subscriptions": []any{[]any{"c1", []string{"maintenance"}}}}
	if err := st.Save(ctx, "routes", doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, ok, err := st.Load(ctx, "routes")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	var back map[string]json.RawMessage
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := back["subscriptions"]; !ok {
		t.Fatalf("subscriptions missing from round-tripped doc: %s", raw)
	}
}

func TestFileStoreAbsentKey(t *testing.T) {
	st, err := Open(Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	_, ok, err := st.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected absent key to report ok=false")
	}
}

func TestFileStoreRejectsBadKey(t *testing.T) {
	st, err := Open(Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	if err := st.Save(context.Background(), "../escape", map[string]string{}); err == nil {
		t.Fatalf("expected error for path-traversal key")
	}
}

func TestOpenDisabled(t *testing.T) {
	st, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil store when driver is empty")
	}
}

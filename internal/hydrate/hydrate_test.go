package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type cacheSettings struct {
	Driver  string      `json:"driver"`
	TTL     int         `json:"ttl"`
	Servers []server    `json:"servers"`
	Window  window      `json:"window"`
	Tags    []string    `json:"tags"`
	Ratio   json.Number `json:"ratio,omitempty"`
}

type server struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func basePayload() map[string]any {
	return map[string]any{
		"driver": "redis",
		"ttl":    int64(300),
		"servers": []any{
			map[string]any{"host": "cache-1", "port": int64(6379)},
		},
		"window": "22:00-06:00",
	}
}

func windowPreHook(_ Context, payload any) (any, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected map payload, got %T", payload)
	}
	raw, ok := m["window"].(string)
	if !ok || raw == "" {
		return m, nil
	}
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid window %q", raw)
	}
	m["window"] = map[string]any{"start": parts[0], "end": parts[1]}
	return m, nil
}

func tagPostHook(ctx Context, settings *cacheSettings) error {
	if len(settings.Tags) == 0 {
		settings.Tags = []string{ctx.Kind + ":" + ctx.Path}
	}
	return nil
}

func TestDecoderAppliesHooks(t *testing.T) {
	decoder := NewDecoder[cacheSettings](
		WithPreHook[cacheSettings](windowPreHook),
		WithPostHook[cacheSettings](tagPostHook),
	)
	got, err := decoder.Decode(Context{Path: "cache.php", Kind: "map"}, basePayload())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := cacheSettings{
		Driver:  "redis",
		TTL:     300,
		Servers: []server{{Host: "cache-1", Port: 6379}},
		Window:  window{Start: "22:00", End: "06:00"},
		Tags:    []string{"map:cache.php"},
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", want, got)
	}
}

func TestDecoderDoesNotMutatePayload(t *testing.T) {
	payload := basePayload()
	decoder := NewDecoder[cacheSettings](WithPreHook[cacheSettings](windowPreHook))
	if _, err := decoder.Decode(Context{}, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["window"] != "22:00-06:00" {
		t.Fatalf("expected caller payload untouched, got %v", payload["window"])
	}
}

func TestDecoderDisallowUnknownFields(t *testing.T) {
	payload := basePayload()
	payload["extra"] = true
	delete(payload, "window")

	_, err := NewDecoder[cacheSettings](WithDisallowUnknownFields[cacheSettings]()).Decode(Context{Path: "cache.php"}, payload)
	if err == nil || !strings.Contains(err.Error(), `unknown field "extra"`) {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"cache.php"`) {
		t.Fatalf("expected path in error, got %v", err)
	}
}

func TestDecoderRequired(t *testing.T) {
	decoder := NewDecoder[cacheSettings](
		WithRequired[cacheSettings]("driver", "servers.0.host", "servers.1.host", "auth.user"),
		WithPreHook[cacheSettings](func(Context, any) (any, error) {
			t.Fatalf("pre-hooks must not run when required keys are missing")
			return nil, nil
		}),
	)
	_, err := decoder.Decode(Context{Path: "cache.php"}, basePayload())

	var hydrateErr *Error
	if !errors.As(err, &hydrateErr) || hydrateErr.Stage != StageRequire {
		t.Fatalf("expected require stage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing servers.1.host, auth.user") {
		t.Fatalf("expected missing paths listed, got %v", err)
	}

	ok := NewDecoder[cacheSettings](
		WithRequired[cacheSettings]("driver", "servers.0.port"),
		WithPreHook[cacheSettings](windowPreHook),
	)
	if _, err := ok.Decode(Context{}, basePayload()); err != nil {
		t.Fatalf("expected present paths to pass, got %v", err)
	}
}

func TestDecoderErrorStages(t *testing.T) {
	_, err := NewDecoder[cacheSettings]().Decode(Context{Path: "x.php"}, map[string]any{"ttl": "soon"})
	var hydrateErr *Error
	if !errors.As(err, &hydrateErr) || hydrateErr.Stage != StageDecode || hydrateErr.Path != "x.php" {
		t.Fatalf("expected decode stage error, got %v", err)
	}

	_, err = NewDecoder[cacheSettings]().Decode(Context{}, map[string]any{"bad": func() {}})
	if !errors.As(err, &hydrateErr) || hydrateErr.Stage != StageCopy {
		t.Fatalf("expected copy stage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "<memory>") {
		t.Fatalf("expected memory placeholder, got %v", err)
	}
}

func TestDecoderUseNumber(t *testing.T) {
	got, err := NewDecoder[map[string]any](WithUseNumber[map[string]any]()).Decode(Context{}, map[string]any{"n": int64(9007199254740993)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["n"] != json.Number("9007199254740993") {
		t.Fatalf("expected exact json.Number, got %#v", got["n"])
	}
}

func TestDecoderHookErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewDecoder[cacheSettings](
		WithPreHook[cacheSettings](func(Context, any) (any, error) { return nil, boom }),
	).Decode(Context{}, basePayload())
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "pre-hook") {
		t.Fatalf("expected pre-hook error, got %v", err)
	}

	_, err = NewDecoder[cacheSettings](
		WithPreHook[cacheSettings](windowPreHook),
		WithPostHook[cacheSettings](func(Context, *cacheSettings) error { return boom }),
	).Decode(Context{}, basePayload())
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "post-hook") {
		t.Fatalf("expected post-hook error, got %v", err)
	}
}

func TestDecoderCustomDecoder(t *testing.T) {
	decoder := NewDecoder[[]string](WithCustomDecoder[[]string](func(_ Context, payload any) ([]string, error) {
		items, ok := payload.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", payload)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, strings.ToUpper(fmt.Sprint(item)))
		}
		return out, nil
	}))
	got, err := decoder.Decode(Context{Kind: "list"}, []any{"a", "b"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual([]string{"A", "B"}, got) {
		t.Fatalf("unexpected result %#v", got)
	}
}

func TestEncode(t *testing.T) {
	raw, err := Encode(server{Host: "h", Port: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != `{"host":"h","port":1}` {
		t.Fatalf("unexpected encoding %s", raw)
	}
	if _, err := Encode(func() {}); err == nil {
		t.Fatalf("expected error for func")
	}
}

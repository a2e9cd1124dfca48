package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeEventMessage(t *testing.T) {
	msg := NewEventMessage(EventMessage{
		Name:    "input",
		Element: 7,
		Bubbles: true,
		Data:    FormData{Value: "x", Values: map[string][]string{"age": {"10"}}, Valid: true},
	})
	data, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("EncodeMessage() error = %v", err)
	}
	want := `{"method":"user_event","params":{"name":"input","element":7,"bubbles":true,"data":{"value":"x","values":{"age":["10"]},"valid":true}}}`
	if string(data) != want {
		t.Errorf("EncodeMessage() = %s, want %s", data, want)
	}

	back, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	ev, ok := back.Params.(RawEvent)
	if !ok {
		t.Fatalf("Params = %T, want RawEvent", back.Params)
	}
	if ev.Name != "input" || ev.Element != 7 || !ev.Bubbles {
		t.Errorf("RawEvent = %+v", ev)
	}
	var form FormData
	if err := json.Unmarshal(ev.Data, &form); err != nil || form.Values["age"][0] != "10" {
		t.Errorf("form payload = %+v, %v", form, err)
	}
}

func TestSpecialMessages(t *testing.T) {
	data, err := EncodeMessage(NewNavigateMessage("https://example.com"))
	if err != nil {
		t.Fatal(err)
	}
	m, err := DecodeMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if nav, ok := m.Params.(NavigateRequest); !ok || nav.Href != "https://example.com" || m.Method != MethodBrowserOpen {
		t.Errorf("DecodeMessage() = %+v", m)
	}

	data, err = EncodeMessage(NewFileDialogMessage(FileDialogRequest{Accept: ".png", Multiple: true, Target: 3, Event: "change&input"}))
	if err != nil {
		t.Fatal(err)
	}
	m, err = DecodeMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	req, ok := m.Params.(FileDialogRequest)
	if !ok || req.Accept != ".png" || !req.Multiple || req.Directory || req.Target != 3 {
		t.Errorf("DecodeMessage() = %+v", m)
	}

	if _, err := DecodeMessage([]byte(`{"method":"nope","params":{}}`)); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("DecodeMessage(unknown) error = %v", err)
	}
}

func TestModifiers(t *testing.T) {
	m := ModCtrl | ModMeta
	if !m.Has(ModCtrl) || !m.Has(ModMeta) || m.Has(ModShift) || m.Has(ModAlt) {
		t.Errorf("Modifiers(%d) Has mismatch", m)
	}
}

func TestCategoryString(t *testing.T) {
	if got := (WheelData{}).Category(); got != CategoryWheel {
		t.Errorf("WheelData.Category() = %v", got)
	}
	if got := (EmptyData{Kind: CategoryMedia}).Category().String(); got != "media" {
		t.Errorf("Category.String() = %q", got)
	}
	if got := Category(200).String(); got != "unknown" {
		t.Errorf("Category(200).String() = %q", got)
	}
}

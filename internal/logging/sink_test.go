// pattern: Imperative Shell

package logging

import (
	"errors"
	"testing"
)

func TestEntrySink_DecodesRecord(t *testing.T) {
	sink := newEntrySink(4)
	defer func() { _ = sink.Close() }()

	record := `{"level":"warn","ts":1700000000.5,"logger":"registry","msg":"pruned stale entry","key":"00ff","caller":"x.go:1"}` + "\n"
	n, err := sink.Write([]byte(record))
	if err != nil || n != len(record) {
		t.Fatalf("Write() = %d, %v", n, err)
	}

	got := <-sink.entries
	if got.Level != "WARN" || got.Scope != "registry" || got.Message != "pruned stale entry" {
		t.Errorf("decoded entry = %+v", got)
	}
	if got.Field("key") != "00ff" {
		t.Errorf("Field(key) = %q", got.Field("key"))
	}
	if _, ok := got.Fields["caller"]; ok {
		t.Error("caller should not be kept as a field")
	}
	if got.Timestamp.Unix() != 1700000000 {
		t.Errorf("Timestamp = %v", got.Timestamp)
	}
}

func TestEntrySink_DefaultsScopeAndLevel(t *testing.T) {
	sink := newEntrySink(1)
	if _, err := sink.Write([]byte(`{"msg":"bare"}`)); err != nil {
		t.Fatal(err)
	}
	got := <-sink.entries
	if got.Scope != "root" || got.Level != "INFO" {
		t.Errorf("entry = %+v, want scope root and level INFO", got)
	}
}

func TestEntrySink_DropsNonJSON(t *testing.T) {
	sink := newEntrySink(1)
	if _, err := sink.Write([]byte("not json\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(sink.entries) != 0 {
		t.Errorf("non-JSON input should not produce an entry")
	}
}

func TestEntrySink_KeepsNewest(t *testing.T) {
	sink := newEntrySink(2)
	for _, msg := range []string{"one", "two", "three"} {
		if _, err := sink.Write([]byte(`{"msg":"` + msg + `"}`)); err != nil {
			t.Fatal(err)
		}
	}
	_ = sink.Close()

	var got []string
	for e := range sink.entries {
		got = append(got, e.Message)
	}
	if len(got) != 2 || got[0] != "two" || got[1] != "three" {
		t.Errorf("entries = %v, want [two three]", got)
	}
}

func TestEntrySink_WriteAfterClose(t *testing.T) {
	sink := newEntrySink(1)
	_ = sink.Close()
	_ = sink.Close()

	if _, err := sink.Write([]byte(`{"msg":"late"}`)); !errors.Is(err, errSinkClosed) {
		t.Errorf("Write() after Close error = %v, want errSinkClosed", err)
	}
}

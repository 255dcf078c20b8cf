// pattern: Functional Core

package reconcile

import (
	"encoding/json"
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"envtrack/internal/environment"
	"envtrack/internal/session"
)

var (
	envA = environment.Local("a", "/env/a")
	envB = environment.Local("b", "/env/b")
	envC = environment.Local("c", "/env/c")
)

type fakeLister struct {
	list []environment.Descriptor
	err  error
}

func (f fakeLister) TryIter() (iter.Seq[environment.Descriptor], error) {
	if f.err != nil {
		return nil, f.err
	}
	return slices.Values(f.list), nil
}

func seq(ds ...environment.Descriptor) iter.Seq[environment.Descriptor] {
	return slices.Values(ds)
}

func TestInactive(t *testing.T) {
	tests := []struct {
		name       string
		registered []environment.Descriptor
		active     []environment.Descriptor
		want       []environment.Descriptor
	}{
		{"one active", []environment.Descriptor{envA, envB, envC}, []environment.Descriptor{envB}, []environment.Descriptor{envA, envC}},
		{"none active", []environment.Descriptor{envA}, nil, []environment.Descriptor{envA}},
		{"both empty", nil, nil, []environment.Descriptor{}},
		{"all active", []environment.Descriptor{envA, envB}, []environment.Descriptor{envB, envA}, []environment.Descriptor{}},
		{"active not registered", []environment.Descriptor{envA}, []environment.Descriptor{envC}, []environment.Descriptor{envA}},
		{"duplicates collapse", []environment.Descriptor{envC, envA, envC}, nil, []environment.Descriptor{envA, envC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Inactive(seq(tt.registered...), seq(tt.active...)).Items()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Inactive() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInactive_IdentityNotName(t *testing.T) {
	// Same name at a different path is a different environment.
	otherA := environment.Local("a", "/elsewhere/a")
	got := Inactive(seq(envA, otherA), seq(envA)).Items()

	if diff := cmp.Diff([]environment.Descriptor{otherA}, got); diff != "" {
		t.Errorf("Inactive() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute(t *testing.T) {
	p, err := Compute(fakeLister{list: []environment.Descriptor{envC, envA, envB}}, session.NewActive(envB))
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}

	want := Partition{
		Active:   []environment.Descriptor{envB},
		Inactive: []environment.Descriptor{envA, envC},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Compute() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_EmptyIsNotError(t *testing.T) {
	p, err := Compute(fakeLister{}, session.NewActive())
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if !p.Empty() {
		t.Errorf("Empty() = false for %+v", p)
	}
}

func TestCompute_RegistryErrorPropagates(t *testing.T) {
	boom := errors.New("registry unreadable")
	_, err := Compute(fakeLister{err: boom}, session.NewActive(envA))
	if !errors.Is(err, boom) {
		t.Fatalf("Compute() error = %v, want %v", err, boom)
	}
}

func TestActiveOnly(t *testing.T) {
	p := ActiveOnly(session.NewActive(envA, envB))
	if diff := cmp.Diff([]environment.Descriptor{envA, envB}, p.Active); diff != "" {
		t.Errorf("Active mismatch (-want +got):\n%s", diff)
	}
	if len(p.Inactive) != 0 {
		t.Errorf("Inactive = %v, want empty", p.Inactive)
	}
}

func TestMostRecentFirst(t *testing.T) {
	p := Partition{Active: []environment.Descriptor{envA, envB, envC}}
	want := []environment.Descriptor{envC, envB, envA}
	if diff := cmp.Diff(want, p.MostRecentFirst()); diff != "" {
		t.Errorf("MostRecentFirst() mismatch (-want +got):\n%s", diff)
	}
	if p.Active[0] != envA {
		t.Error("MostRecentFirst() must not reorder Active")
	}
}

func TestPartition_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		p    Partition
		want string
	}{
		{
			name: "empty",
			p:    Partition{},
			want: `{"active":[],"inactive":[]}`,
		},
		{
			name: "mixed",
			p: Partition{
				Active:   []environment.Descriptor{environment.Remote("team/shared")},
				Inactive: []environment.Descriptor{envA},
			},
			want: `{"active":[{"name":"team/shared","path":null}],"inactive":[{"name":"a","path":"/env/a"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.p)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

package fixtures

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"able/records-go/pkg/logging"
)

func TestRepositoryFixturesPass(t *testing.T) {
	loaded, err := LoadFixtures(filepath.Join("..", "..", "testdata", "fixtures"))
	if err != nil {
		t.Fatalf("LoadFixtures: %v", err)
	}
	runner := NewRunner(logging.TestLogger(t), nil)
	for _, fx := range loaded {
		t.Run(fx.Name, func(t *testing.T) {
			res := runner.Run(fx)
			for _, f := range res.Failures {
				t.Errorf("%s", f)
			}
			if res.Steps != len(fx.Steps) {
				t.Fatalf("ran %d of %d steps", res.Steps, len(fx.Steps))
			}
		})
	}
}

func runInline(t *testing.T, src string) *Result {
	t.Helper()
	return NewRunner(logging.TestLogger(t), nil).Run(mustParse(t, src))
}

func TestRunnerCollectsFailuresAndContinues(t *testing.T) {
	res := runInline(t, `
name: failures
steps:
  - op: map_new
    map: m
    pairs: {a: 1}
  - op: map_get
    map: m
    key: a
    expect: 2
  - op: map_get
    map: m
    key: a
    expect_error: key_not_found
  - op: map_get
    map: missing
    key: a
  - op: map_len
    map: m
    expect: 1
`)
	got := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		got = append(got, f.String())
	}
	want := []string{
		"step 1 (map_get): expected 2, got 1",
		"step 2 (map_get): expected error key_not_found, got 1",
		`step 3 (map_get): map "missing" is not defined`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("failures (-want +got):\n%s", diff)
	}
	if res.Passed() {
		t.Fatalf("Passed() = true")
	}
	if res.Steps != 5 {
		t.Fatalf("Steps = %d", res.Steps)
	}
}

func TestRunnerDisplayOutput(t *testing.T) {
	var buf bytes.Buffer
	fx := mustParse(t, `
name: display
steps:
  - op: type_define
    type: Dog
  - op: record_new
    record: fido
    type: Dog
    owned: {name: Fido, tricks: [sit]}
  - op: display
    target: fido
  - op: display
    target: nobody
`)
	res := NewRunner(nil, &buf).Run(fx)
	if diff := cmp.Diff([]string{`Dog{name: "Fido", tricks: ["sit"]}`}, res.Output); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
	if buf.String() != "Dog{name: \"Fido\", tricks: [\"sit\"]}\n" {
		t.Fatalf("writer got %q", buf.String())
	}
	if len(res.Failures) != 1 || !strings.Contains(res.Failures[0].Message, `nothing named "nobody"`) {
		t.Fatalf("failures = %v", res.Failures)
	}
}

func TestRunnerStateIsPerRun(t *testing.T) {
	fx := mustParse(t, `
name: months
steps:
  - op: aggregate_new
    aggregate: march
    discriminant: March
  - op: record_new
    record: d1
    type: Day
    owned: {day: 1, min_temperature: 0, max_temperature: 10}
  - op: aggregate_add
    aggregate: march
    discriminant: March
    child: d1
    expect_len: 1
`)
	runner := NewRunner(nil, nil)
	for i := range 2 {
		if res := runner.Run(fx); !res.Passed() {
			t.Fatalf("run %d failed: %v", i, res.Failures)
		}
	}
}

func TestRunnerTierAndLength(t *testing.T) {
	res := runInline(t, `
name: tiers
steps:
  - op: type_define
    type: T
    shared: {items: []}
  - op: record_new
    record: r
    type: T
  - op: record_append
    record: r
    attr: items
    value: 1
    expect_tier: owned
  - op: record_get
    record: r
    attr: items
    expect_len: 1
`)
	want := []string{
		"step 2 (record_append): expected owned tier, got shared",
		"step 3 (record_get): expect_len does not apply to record_get",
	}
	got := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		got = append(got, f.String())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("failures (-want +got):\n%s", diff)
	}
}

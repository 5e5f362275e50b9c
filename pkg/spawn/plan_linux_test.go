package spawn

import (
	"syscall"
	"testing"

	"github.com/criyle/go-spawn/pkg/seccomp"
)

func TestPlanOrder(t *testing.T) {
	p := NewPlan()
	p.AddDup2(3, 1)
	p.AddClose(3)
	p.AddFchdir(4)
	p.AddSetRlimit(syscall.RLIMIT_NOFILE, syscall.Rlimit{Cur: 64, Max: 64})

	want := []actionOp{opDup2, opClose, opFchdir, opSetRlimit}
	if p.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", p.Len(), len(want))
	}
	for i, op := range want {
		if p.actions[i].op != op {
			t.Errorf("actions[%d].op = %v, want %v", i, p.actions[i].op, op)
		}
	}
	if p.actions[0].arg0 != 3 || p.actions[0].arg1 != 1 {
		t.Errorf("dup2 args = (%d, %d), want (3, 1)", p.actions[0].arg0, p.actions[0].arg1)
	}
	if p.actions[3].rlim.Cur != 64 {
		t.Errorf("rlim.Cur = %d, want 64", p.actions[3].rlim.Cur)
	}
}

func TestPlanReset(t *testing.T) {
	p := NewPlan()
	p.SetFlags(UsePath)
	p.AddClose(3)
	p.AddClose(4)
	p.Reset()
	if p.Len() != 0 {
		t.Errorf("Len = %d after Reset, want 0", p.Len())
	}
	if p.Flags() != 0 {
		t.Errorf("Flags = %v after Reset, want 0", p.Flags())
	}
	// the plan stays usable after a reset
	p.AddClose(5)
	if p.Len() != 1 || p.actions[0].arg0 != 5 {
		t.Errorf("append after Reset recorded %+v", p.actions)
	}
}

func TestPlanMaxFd(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *Plan)
		want  int
	}{
		{"empty", func(p *Plan) {}, -1},
		{"close", func(p *Plan) { p.AddClose(5) }, 5},
		{"dup2 newfd", func(p *Plan) { p.AddDup2(3, 9) }, 9},
		{"dup2 oldfd", func(p *Plan) { p.AddDup2(9, 3) }, 9},
		{"fchdir", func(p *Plan) { p.AddFchdir(7) }, 7},
		{"rlimit only", func(p *Plan) {
			p.AddSetRlimit(syscall.RLIMIT_NOFILE, syscall.Rlimit{Cur: 64, Max: 64})
		}, -1},
		{"mixed", func(p *Plan) {
			p.AddClose(2)
			p.AddDup2(3, 11)
			p.AddFchdir(4)
		}, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan()
			tt.build(p)
			if got := p.maxFd(); got != tt.want {
				t.Errorf("maxFd = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlanAddSeccompEmpty(t *testing.T) {
	p := NewPlan()
	p.AddSeccomp(nil)
	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}
	prog := p.actions[0].filter
	if prog == nil {
		t.Fatal("empty filter recorded nil program")
	}
	if prog.Len != 0 {
		t.Errorf("prog.Len = %d, want 0", prog.Len)
	}
}

func TestPlanAddSeccompPinned(t *testing.T) {
	filter := seccomp.Filter{
		{Code: 0x06, K: 0x7fff0000}, // ret ALLOW
	}
	p := NewPlan()
	p.AddSeccomp(filter)
	prog := p.actions[0].filter
	if int(prog.Len) != len(filter) {
		t.Errorf("prog.Len = %d, want %d", prog.Len, len(filter))
	}
	if prog.Filter != &filter[0] {
		t.Error("program does not point at the filter backing array")
	}
}

package strata_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/lanreath/strata"
	"github.com/lanreath/strata/pkg/domain"
)

const (
	idTop   domain.StateID = 1
	idOff   domain.StateID = 2
	idOn    domain.StateID = 3
	idDim   domain.StateID = 4
	evFlip  domain.EventID = 20
	evLevel domain.EventID = 21
)

type trace struct {
	log []string
}

func (tr *trace) add(format string, args ...any) {
	tr.log = append(tr.log, fmt.Sprintf(format, args...))
}

type switchState struct {
	id     domain.StateID
	tr     *trace
	handle func(ev *domain.Event) bool
}

func (s *switchState) ID() domain.StateID { return s.id }
func (s *switchState) OnEnter()           { s.tr.add("enter:%d", s.id) }
func (s *switchState) OnExit()            { s.tr.add("exit:%d", s.id) }

func (s *switchState) HandleEvent(ev *domain.Event) bool {
	if s.handle == nil {
		return false
	}
	return s.handle(ev)
}

func ref(id domain.StateID) *domain.StateID { return &id }

func TestBuilderRegisterErrors(t *testing.T) {
	tr := &trace{}
	b := strata.NewBuilder()

	if err := b.Register(nil, &switchState{id: idTop, tr: tr}); err != nil {
		t.Fatalf("register root: %v", err)
	}

	t.Run("duplicate id", func(t *testing.T) {
		err := b.Register(nil, &switchState{id: idTop, tr: tr})
		if !errors.Is(err, domain.ErrDuplicateState) {
			t.Fatalf("err = %v, want ErrDuplicateState", err)
		}
	})

	t.Run("unknown parent", func(t *testing.T) {
		err := b.Register(ref(99), &switchState{id: idOff, tr: tr})
		if !errors.Is(err, domain.ErrUnknownParent) {
			t.Fatalf("err = %v, want ErrUnknownParent", err)
		}
	})
}

func TestDelegateSingleIssue(t *testing.T) {
	tr := &trace{}
	b := strata.NewBuilder()
	if err := b.Register(nil, &switchState{id: idTop, tr: tr}); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Delegate(idTop); err != nil {
		t.Fatalf("first delegate: %v", err)
	}
	if _, err := b.Delegate(idTop); !errors.Is(err, domain.ErrDelegateTaken) {
		t.Fatalf("second delegate err = %v, want ErrDelegateTaken", err)
	}
	if _, err := b.Delegate(42); !errors.Is(err, domain.ErrUnknownState) {
		t.Fatalf("unknown id err = %v, want ErrUnknownState", err)
	}
}

func TestBuildUnknownInitial(t *testing.T) {
	b := strata.NewBuilder()
	if err := b.Register(nil, &switchState{id: idTop, tr: &trace{}}); err != nil {
		t.Fatal(err)
	}

	eng, err := b.Build(77)
	if !errors.Is(err, domain.ErrUnknownState) {
		t.Fatalf("err = %v, want ErrUnknownState", err)
	}
	if eng != nil {
		t.Fatal("no engine must be produced on a fatal build error")
	}
}

func TestBuildRunsInitialEntryCascade(t *testing.T) {
	tr := &trace{}
	b := strata.NewBuilder()
	if err := b.Register(nil, &switchState{id: idTop, tr: tr}); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(ref(idTop), &switchState{id: idOn, tr: tr}); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(ref(idOn), &switchState{id: idDim, tr: tr}); err != nil {
		t.Fatal(err)
	}

	eng, err := b.Build(idDim)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{"enter:1", "enter:3", "enter:4"}
	if !reflect.DeepEqual(tr.log, want) {
		t.Fatalf("entry cascade = %v, want %v", tr.log, want)
	}
	if eng.Current() != idDim {
		t.Fatalf("current = %s, want %s", eng.Current(), idDim)
	}
}

func TestResumeSkipsEntryActions(t *testing.T) {
	tr := &trace{}
	b := strata.NewBuilder()
	if err := b.Register(nil, &switchState{id: idTop, tr: tr}); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(ref(idTop), &switchState{id: idOn, tr: tr}); err != nil {
		t.Fatal(err)
	}

	eng, err := b.Resume(idOn)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(tr.log) != 0 {
		t.Fatalf("resume ran callbacks: %v", tr.log)
	}
	if eng.Current() != idOn {
		t.Fatalf("current = %s, want %s", eng.Current(), idOn)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := strata.NewBuilder()
	if err := b.Register(nil, &switchState{id: idTop, tr: &trace{}}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(idTop); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Build(idTop); err == nil {
		t.Fatal("second Build must fail")
	}
	if err := b.Register(nil, &switchState{id: idOff, tr: &trace{}}); err == nil {
		t.Fatal("Register after Build must fail")
	}
}

// Off and On toggle through their delegates; events neither handles defer
// to Top and come back unhandled.
func TestEngineToggleRoundTrip(t *testing.T) {
	tr := &trace{}
	off := &switchState{id: idOff, tr: tr}
	on := &switchState{id: idOn, tr: tr}

	b := strata.NewBuilder()
	if err := b.Register(nil, &switchState{id: idTop, tr: tr}); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(ref(idTop), off); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(ref(idTop), on); err != nil {
		t.Fatal(err)
	}

	offD, err := b.Delegate(idOff)
	if err != nil {
		t.Fatal(err)
	}
	onD, err := b.Delegate(idOn)
	if err != nil {
		t.Fatal(err)
	}
	off.handle = func(ev *domain.Event) bool {
		if ev.ID != evFlip {
			return false
		}
		offD.ChangeState(idOn)
		return true
	}
	on.handle = func(ev *domain.Event) bool {
		if ev.ID != evFlip {
			return false
		}
		onD.ChangeState(idOff)
		return true
	}

	eng, err := b.Build(idOff)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := context.Background()
	outcome, err := eng.Dispatch(ctx, domain.NewEvent(evFlip, nil))
	if err != nil || outcome != domain.Handled {
		t.Fatalf("first flip: outcome=%v err=%v", outcome, err)
	}
	if eng.Current() != idOn {
		t.Fatalf("current = %s, want %s", eng.Current(), idOn)
	}

	outcome, err = eng.Dispatch(ctx, domain.NewEvent(evFlip, nil))
	if err != nil || outcome != domain.Handled {
		t.Fatalf("second flip: outcome=%v err=%v", outcome, err)
	}
	if eng.Current() != idOff {
		t.Fatalf("current = %s, want %s", eng.Current(), idOff)
	}

	outcome, err = eng.Dispatch(ctx, domain.NewEvent(evLevel, nil))
	if err != nil || outcome != domain.Unhandled {
		t.Fatalf("level event: outcome=%v err=%v, want unhandled", outcome, err)
	}
}

// Requests enqueued through a delegate before Build sit in the mailbox
// and apply during the first dispatch's drain.
func TestDelegateRequestsBeforeBuildAreQueued(t *testing.T) {
	tr := &trace{}
	b := strata.NewBuilder()
	if err := b.Register(nil, &switchState{id: idTop, tr: tr}); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(ref(idTop), &switchState{id: idOn, tr: tr}); err != nil {
		t.Fatal(err)
	}

	d, err := b.Delegate(idTop)
	if err != nil {
		t.Fatal(err)
	}
	d.ChangeState(idOn)

	eng, err := b.Resume(idTop)
	if err != nil {
		t.Fatal(err)
	}
	if eng.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", eng.Pending())
	}

	outcome, err := eng.Dispatch(context.Background(), domain.NewEvent(evLevel, nil))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if outcome != domain.Unhandled {
		t.Fatalf("outcome = %v, want unhandled", outcome)
	}
	if eng.Current() != idOn {
		t.Fatalf("current = %s, queued request must apply in the drain", eng.Current())
	}
}

func TestSnapshotCarriesIdentity(t *testing.T) {
	b := strata.NewBuilder(strata.WithInstanceID("inst-1"), strata.WithChartName("lights"))
	if err := b.Register(nil, &switchState{id: idTop, tr: &trace{}}); err != nil {
		t.Fatal(err)
	}
	eng, err := b.Build(idTop)
	if err != nil {
		t.Fatal(err)
	}

	snap := eng.Snapshot()
	if snap.InstanceID != "inst-1" || snap.Chart != "lights" || snap.Current != idTop {
		t.Fatalf("snapshot = %+v", snap)
	}
}

package render

import (
	"testing"
	"time"

	"mii-renderer/internal/evaluator"
	"mii-renderer/internal/shader"
)

func TestSetExpressionIdempotent(t *testing.T) {
	rc, rec := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16, evaluator.ExpressionNormal, evaluator.ExpressionBlink)
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	rc.SetExpression(evaluator.ExpressionBlink)
	before := rc.current
	calls := m.setCalls
	rec.Reset()

	rc.SetExpression(evaluator.ExpressionBlink)
	if rc.current != before {
		t.Error("current mask pointer changed on repeated SetExpression")
	}
	if m.setCalls != calls {
		t.Errorf("model SetExpression called %d more times", m.setCalls-calls)
	}
	if len(rec.Calls) != 0 {
		t.Errorf("backend calls on repeated SetExpression: %v", rec.Ops())
	}
}

func TestSetExpressionRepointsMask(t *testing.T) {
	rc, _ := newRecorded(t, shader.StyleLit)
	m := newFakeModel(t, 16, evaluator.ExpressionNormal, evaluator.ExpressionBlink)
	if err := rc.Bake(m); err != nil {
		t.Fatal(err)
	}
	rc.SetExpression(evaluator.ExpressionBlink)
	if cur, _ := rc.CurrentMask(); cur != rc.MaskTarget(evaluator.ExpressionBlink) {
		t.Errorf("current mask = %+v, want blink", cur)
	}
	if rc.Expression() != evaluator.ExpressionBlink || m.expr != evaluator.ExpressionBlink {
		t.Errorf("expression = %v / model %v, want blink", rc.Expression(), m.expr)
	}
}

func TestSetExpressionOutOfRangePanics(t *testing.T) {
	rc, _ := newRecorded(t, shader.StyleLit)
	for _, e := range []evaluator.Expression{-1, evaluator.ExpressionLimit} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("SetExpression(%d) did not panic", e)
				}
			}()
			rc.SetExpression(e)
		}()
	}
}

func TestSetExpressionUnbakedPanics(t *testing.T) {
	rc, _ := newRecorded(t, shader.StyleLit)
	if err := rc.Bake(newFakeModel(t, 16, evaluator.ExpressionNormal)); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("SetExpression to an unbaked expression did not panic")
		}
	}()
	rc.SetExpression(evaluator.ExpressionSorrow)
}

func TestSetExpressionBeforeBakeForwards(t *testing.T) {
	rc, _ := newRecorded(t, shader.StyleLit)
	rc.SetExpression(evaluator.ExpressionBlink) // no model: ignored
	if _, ok := rc.CurrentMask(); ok {
		t.Error("current mask set without a bake")
	}
}

// expressionLog records blink transitions.
type expressionLog []evaluator.Expression

func (l *expressionLog) SetExpression(e evaluator.Expression) { *l = append(*l, e) }

func TestBlinkerTimings(t *testing.T) {
	var log expressionLog
	b := NewBlinker(&log, evaluator.ExpressionSmile, 8*time.Second, 80*time.Millisecond)

	steps := []struct {
		at   time.Duration
		want BlinkState
	}{
		{0, BlinkOpen},
		{7999 * time.Millisecond, BlinkOpen},
		{8 * time.Second, BlinkClosed},
		{8079 * time.Millisecond, BlinkClosed},
		{8080 * time.Millisecond, BlinkOpen},
		{16*time.Second - time.Nanosecond, BlinkOpen},
		{16 * time.Second, BlinkClosed},
		{16080 * time.Millisecond, BlinkOpen},
	}
	for _, s := range steps {
		if got := b.Update(s.at); got != s.want {
			t.Errorf("at %v: state = %v, want %v", s.at, got, s.want)
		}
	}

	want := expressionLog{
		evaluator.ExpressionBlink, evaluator.ExpressionSmile,
		evaluator.ExpressionBlink, evaluator.ExpressionSmile,
	}
	if len(log) != len(want) {
		t.Fatalf("transitions = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, log[i], want[i])
		}
	}
}

func TestBlinkerSetRestore(t *testing.T) {
	var log expressionLog
	b := NewBlinker(&log, evaluator.ExpressionNormal, 8*time.Second, 80*time.Millisecond)
	b.Update(30 * time.Second)
	b.SetRestore(evaluator.ExpressionSmile)
	b.Update(30*time.Second + 80*time.Millisecond)
	if st := b.Update(31 * time.Second); st != BlinkOpen {
		t.Errorf("Update(31s) = %v, want open", st)
	}
	want := expressionLog{evaluator.ExpressionBlink, evaluator.ExpressionSmile}
	if len(log) != len(want) || log[0] != want[0] || log[1] != want[1] {
		t.Errorf("transitions = %v, want %v", log, want)
	}
}

func TestBlinkerDefaults(t *testing.T) {
	b := NewBlinker(&expressionLog{}, evaluator.ExpressionNormal, 0, 0)
	if b.Interval != DefaultBlinkInterval || b.Duration != DefaultBlinkDuration {
		t.Errorf("defaults = %v/%v", b.Interval, b.Duration)
	}
}

func TestBlinkerDrivesRenderContext(t *testing.T) {
	rc, _ := newRecorded(t, shader.StyleLit)
	if err := rc.Bake(newFakeModel(t, 16, evaluator.ExpressionNormal, evaluator.ExpressionBlink)); err != nil {
		t.Fatal(err)
	}
	b := NewBlinker(rc, rc.Expression(), time.Second, 100*time.Millisecond)
	b.Update(time.Second)
	if cur, _ := rc.CurrentMask(); cur != rc.MaskTarget(evaluator.ExpressionBlink) {
		t.Error("blink did not select the blink mask")
	}
	b.Update(1100 * time.Millisecond)
	if cur, _ := rc.CurrentMask(); cur != rc.MaskTarget(evaluator.ExpressionNormal) {
		t.Error("open did not restore the normal mask")
	}
}

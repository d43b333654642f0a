package session

import (
	"errors"
	"testing"

	"permalens/internal/assessment"
	"permalens/internal/dimension"
)

// --- Helpers ---

func testQuestions() []assessment.Question {
	return []assessment.Question{
		{ID: 1, Text: "q1", Dimension: dimension.PositiveEmotion, ScaleStart: 0, ScaleEnd: 10, DisplayOrder: 1, Active: true},
		{ID: 2, Text: "q2", Dimension: dimension.Engagement, ScaleStart: 0, ScaleEnd: 10, DisplayOrder: 2, Active: true},
		{ID: 3, Text: "q3", Dimension: dimension.Vitality, ScaleStart: 0, ScaleEnd: 10, DisplayOrder: 3, Active: true},
	}
}

func startedState() State {
	return Start(New("sub-1", testQuestions()))
}

// --- New ---

func TestNew_SeedsMidpoints(t *testing.T) {
	s := New("sub-1", testQuestions())

	if s.Status != StatusNotStarted {
		t.Errorf("status = %s, want not_started", s.Status)
	}
	for id, v := range s.Values {
		if v.Personal != 5 || v.Work != 5 {
			t.Errorf("question %d seeded to %+v, want midpoint 5/5", id, v)
		}
	}
}

func TestNew_MidpointOnOffsetScale(t *testing.T) {
	s := New("sub-1", []assessment.Question{
		{ID: 1, Dimension: dimension.Meaning, ScaleStart: 1, ScaleEnd: 5},
	})
	if v := s.Values[1]; v.Personal != 3 || v.Work != 3 {
		t.Errorf("seeded to %+v, want midpoint 3/3 on a 1-5 scale", v)
	}
}

func TestNew_CopiesQuestionList(t *testing.T) {
	qs := testQuestions()
	s := New("sub-1", qs)
	qs[0].Text = "mutated"
	if s.Questions[0].Text != "q1" {
		t.Error("mutating the caller's slice leaked into the session state")
	}
}

// --- Start ---

func TestStart_MovesToFirstQuestion(t *testing.T) {
	s := startedState()
	if s.Status != StatusInProgress {
		t.Errorf("status = %s, want in_progress", s.Status)
	}
	q, ok := Current(s)
	if !ok || q.ID != 1 {
		t.Errorf("current question = %v, want question 1", q.ID)
	}
}

func TestStart_AlreadyStartedIsNoOp(t *testing.T) {
	s := startedState()
	s = Forward(s)
	s = Start(s)
	if s.Index != 1 {
		t.Errorf("re-start moved the cursor to %d, want 1", s.Index)
	}
}

// --- SetValue ---

func TestSetValue_RecordsContextIndependently(t *testing.T) {
	s := startedState()

	s, err := SetValue(s, dimension.Personal, 8)
	if err != nil {
		t.Fatalf("SetValue personal: %v", err)
	}
	s, err = SetValue(s, dimension.Work, 2)
	if err != nil {
		t.Fatalf("SetValue work: %v", err)
	}

	if v := s.Values[1]; v.Personal != 8 || v.Work != 2 {
		t.Errorf("values = %+v, want personal 8 work 2", v)
	}
}

func TestSetValue_OutOfRangeRejectedAndStateUnchanged(t *testing.T) {
	s := startedState()
	before := s.Values[1]

	next, err := SetValue(s, dimension.Personal, 11)
	if !errors.Is(err, assessment.ErrOutOfRange) {
		t.Fatalf("error should wrap ErrOutOfRange, got: %v", err)
	}
	if got := next.Values[1]; got != before {
		t.Errorf("working value changed to %+v on a rejected write, want %+v", got, before)
	}
}

func TestSetValue_NegativeOutOfRange(t *testing.T) {
	s := startedState()
	_, err := SetValue(s, dimension.Work, -1)
	if !errors.Is(err, assessment.ErrOutOfRange) {
		t.Errorf("error should wrap ErrOutOfRange, got: %v", err)
	}
}

func TestSetValue_BoundsAreInclusive(t *testing.T) {
	s := startedState()
	for _, v := range []int{0, 10} {
		if _, err := SetValue(s, dimension.Personal, v); err != nil {
			t.Errorf("SetValue(%d) on a 0-10 scale should succeed, got: %v", v, err)
		}
	}
}

func TestSetValue_DoesNotMutateInput(t *testing.T) {
	s := startedState()
	next, err := SetValue(s, dimension.Personal, 9)
	if err != nil {
		t.Fatal(err)
	}
	if s.Values[1].Personal != 5 {
		t.Error("transition mutated the input state")
	}
	if next.Values[1].Personal != 9 {
		t.Error("transition lost the new value")
	}
}

// --- Forward / Retreat ---

func TestForward_ClampsAtLastQuestion(t *testing.T) {
	s := startedState()
	for i := 0; i < 10; i++ {
		s = Forward(s)
	}
	if s.Index != 2 {
		t.Errorf("index = %d, want clamped at 2", s.Index)
	}
	if !AtLast(s) {
		t.Error("AtLast should be true at the final question")
	}
}

func TestRetreat_ClampsAtFirstQuestion(t *testing.T) {
	s := startedState()
	s = Retreat(s)
	if s.Index != 0 {
		t.Errorf("index = %d, want clamped at 0", s.Index)
	}
}

func TestForwardThenRetreat_RoundTrip(t *testing.T) {
	s := startedState()
	s = Forward(s)
	s = Retreat(s)
	q, _ := Current(s)
	if q.ID != 1 {
		t.Errorf("current question = %d, want back at question 1", q.ID)
	}
}

// --- Complete ---

func TestComplete_Terminal(t *testing.T) {
	s := Complete(startedState())
	if s.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", s.Status)
	}
}

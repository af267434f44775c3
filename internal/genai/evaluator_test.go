package genai

import (
	"errors"
	"testing"
)

func TestParseEvaluation(t *testing.T) {
	text := "Feedback: Solid work on question one, question two needs detail.\nTotal Marks: [42/100]\n"

	eval, err := parseEvaluation(text)
	if err != nil {
		t.Fatalf("parseEvaluation() error = %v", err)
	}
	if eval.Feedback != "Solid work on question one, question two needs detail." {
		t.Errorf("Feedback = %q", eval.Feedback)
	}
	if eval.Awarded != 42 || eval.Max != 100 {
		t.Errorf("mark = %v/%v, want 42/100", eval.Awarded, eval.Max)
	}
}

func TestParseEvaluation_NoBrackets(t *testing.T) {
	eval, err := parseEvaluation("Feedback: fine\nTotal Marks: 10/20")
	if err != nil {
		t.Fatalf("parseEvaluation() error = %v", err)
	}
	if eval.Awarded != 10 || eval.Max != 20 {
		t.Errorf("mark = %v/%v, want 10/20", eval.Awarded, eval.Max)
	}
}

func TestParseEvaluation_MissingMarkLine(t *testing.T) {
	_, err := parseEvaluation("Feedback: looks great")
	if !errors.Is(err, ErrMarkParse) {
		t.Fatalf("error = %v, want ErrMarkParse", err)
	}
}

func TestParseEvaluation_ProseMark(t *testing.T) {
	_, err := parseEvaluation("Feedback: ok\nTotal Marks: about half")
	if !errors.Is(err, ErrMarkParse) {
		t.Fatalf("error = %v, want ErrMarkParse", err)
	}
}

package domain

import (
	"errors"
	"testing"
)

func TestTransitionLegalChain(t *testing.T) {
	tests := []struct {
		name   string
		status PolicyStatus
		role   Role
		action Action
		next   PolicyStatus
	}{
		{"creator submits draft", StatusDraft, RoleCreator, ActionSubmit, StatusPendingUnderwriter},
		{"underwriter approves", StatusPendingUnderwriter, RoleUnderwriter, ActionApprove, StatusPendingManager},
		{"underwriter rejects", StatusPendingUnderwriter, RoleUnderwriter, ActionReject, StatusRejected},
		{"manager approves", StatusPendingManager, RoleManager, ActionApprove, StatusApproved},
		{"manager rejects", StatusPendingManager, RoleManager, ActionReject, StatusRejected},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.status, tc.role, tc.action)
			if err != nil {
				t.Fatalf("expected legal transition, got error: %v", err)
			}
			if next != tc.next {
				t.Fatalf("expected next status %q, got %q", tc.next, next)
			}
		})
	}
}

// TestTransitionExhaustive перебирает все комбинации и проверяет,
// что разрешены ровно пять переходов из таблицы — статус двигается
// только вперед по цепочке, без перескоков и откатов.
func TestTransitionExhaustive(t *testing.T) {
	statuses := []PolicyStatus{StatusDraft, StatusPendingUnderwriter, StatusPendingManager, StatusApproved, StatusRejected}
	roles := []Role{RoleCreator, RoleUnderwriter, RoleManager}
	actions := []Action{ActionSubmit, ActionApprove, ActionReject}

	legal := 0
	for _, s := range statuses {
		for _, r := range roles {
			for _, a := range actions {
				next, err := Transition(s, r, a)
				if err != nil {
					continue
				}
				legal++

				// Запрещаем движение назад: индекс следующей стадии
				// строго больше текущей (rejected — отдельная ветка)
				if next != StatusRejected && stageIndex(next) != stageIndex(s)+1 {
					t.Errorf("transition %s/%s/%s skips or reverses a stage: %s -> %s", s, r, a, s, next)
				}
			}
		}
	}

	if legal != 5 {
		t.Fatalf("expected exactly 5 legal transitions, got %d", legal)
	}
}

func stageIndex(s PolicyStatus) int {
	switch s {
	case StatusDraft:
		return 0
	case StatusPendingUnderwriter:
		return 1
	case StatusPendingManager:
		return 2
	case StatusApproved:
		return 3
	}
	return -1
}

func TestTransitionTerminalAbsorbing(t *testing.T) {
	for _, s := range []PolicyStatus{StatusApproved, StatusRejected} {
		for _, r := range []Role{RoleCreator, RoleUnderwriter, RoleManager} {
			for _, a := range []Action{ActionSubmit, ActionApprove, ActionReject} {
				if _, err := Transition(s, r, a); !errors.Is(err, ErrAlreadyFinal) {
					t.Errorf("expected ErrAlreadyFinal for %s/%s/%s, got %v", s, r, a, err)
				}
			}
		}
	}
}

func TestTransitionWrongRole(t *testing.T) {
	// Менеджер не может решать на ступени андеррайтера и наоборот
	if _, err := Transition(StatusPendingUnderwriter, RoleManager, ActionApprove); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := Transition(StatusPendingManager, RoleUnderwriter, ActionApprove); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	// Создатель не согласует собственный полис
	if _, err := Transition(StatusPendingUnderwriter, RoleCreator, ActionApprove); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestValidateComment(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		comment string
		err     error
	}{
		{"reject without comment", ActionReject, "", ErrCommentRequired},
		{"reject with whitespace comment", ActionReject, "   \t", ErrCommentRequired},
		{"reject with comment", ActionReject, "premium too low for coverage", nil},
		{"approve without comment", ActionApprove, "", nil},
		{"submit without comment", ActionSubmit, "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateComment(tc.action, tc.comment)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestPolicyEditable(t *testing.T) {
	p := &Policy{Status: StatusDraft, CreatedBy: "user-1"}

	if !p.Editable("user-1", RoleCreator) {
		t.Fatal("creator must be able to edit own draft")
	}
	if p.Editable("user-2", RoleCreator) {
		t.Fatal("draft must not be editable by another creator")
	}

	p.Status = StatusPendingUnderwriter
	if p.Editable("user-1", RoleCreator) {
		t.Fatal("creator must not edit policy outside draft")
	}
	if !p.Editable("any", RoleUnderwriter) {
		t.Fatal("underwriter must be able to edit on their stage")
	}
	if p.Editable("any", RoleManager) {
		t.Fatal("manager must not edit on underwriter stage")
	}

	p.Status = StatusApproved
	if p.Editable("user-1", RoleCreator) || p.Editable("any", RoleManager) {
		t.Fatal("terminal policy must not be editable")
	}
}

func TestPolicyInputValidate(t *testing.T) {
	in := &PolicyInput{CustomerName: "  Ivan Petrov  ", Premium: 1200, ProductType: " auto "}
	if err := in.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if in.CustomerName != "Ivan Petrov" || in.ProductType != "auto" {
		t.Fatalf("expected trimmed fields, got %q / %q", in.CustomerName, in.ProductType)
	}

	bad := []PolicyInput{
		{CustomerName: "", Premium: 100, ProductType: "auto"},
		{CustomerName: "Ivan Petrov", Premium: 0, ProductType: "auto"},
		{CustomerName: "Ivan Petrov", Premium: -5, ProductType: "auto"},
		{CustomerName: "Ivan Petrov", Premium: 100, ProductType: "  "},
	}
	for i := range bad {
		if err := bad[i].Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

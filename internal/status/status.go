package status

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
)

// Condition reasons written by the scheduler.
const (
	ReasonReady           = "Ready"
	ReasonNoErrors        = "NoErrors"
	ReasonRollingUpdate   = "RollingUpdate"
	ReasonRolledOut       = "RolledOut"
	ReasonIncomplete      = "PreconditionNotMet"
	ReasonNotReady        = "DependencyNotReady"
	ReasonReconcileFailed = "ReconcileFailed"
)

// Set adds or updates a condition in the condition slice.
// LastTransitionTime only moves when the status value changes.
func Set(conditions *[]metav1.Condition, generation int64, conditionType string, status metav1.ConditionStatus, reason, message string) {
	meta.SetStatusCondition(conditions, metav1.Condition{
		Type:               conditionType,
		Status:             status,
		Reason:             reason,
		Message:            message,
		ObservedGeneration: generation,
		LastTransitionTime: metav1.Now(),
	})
}

// True sets a condition to True status.
func True(conditions *[]metav1.Condition, generation int64, conditionType, reason, message string) {
	Set(conditions, generation, conditionType, metav1.ConditionTrue, reason, message)
}

// False sets a condition to False status.
func False(conditions *[]metav1.Condition, generation int64, conditionType, reason, message string) {
	Set(conditions, generation, conditionType, metav1.ConditionFalse, reason, message)
}

// Get returns the condition with the given type, or nil if not found.
func Get(conditions []metav1.Condition, conditionType string) *metav1.Condition {
	return meta.FindStatusCondition(conditions, conditionType)
}

// IsTrue returns true if the condition with the given type has Status=True.
func IsTrue(conditions []metav1.Condition, conditionType string) bool {
	return meta.IsStatusConditionTrue(conditions, conditionType)
}

// Severity orders outstanding issues. Higher values win when picking the
// single issue reported on the Ready condition.
type Severity int

const (
	// SeverityPostcondition is an active kind whose readiness postcondition does not hold yet.
	SeverityPostcondition Severity = iota + 1
	// SeverityIncomplete is a kind skipped because its precondition was false.
	SeverityIncomplete
	// SeverityError is a configuration error or invariant violation.
	SeverityError
)

// Issue is one outstanding problem observed during a pass.
type Issue struct {
	Severity Severity
	// Kind is the managed-object slot the issue belongs to, e.g. "server/Deployment".
	Kind    string
	Reason  string
	Message string
}

// Aggregate collects the outcome of one reconciliation pass.
type Aggregate struct {
	issues  []Issue
	rolling []string
}

// Add records an issue.
func (a *Aggregate) Add(issue Issue) {
	a.issues = append(a.issues, issue)
}

// AddError records a configuration or invariant error for kind.
func (a *Aggregate) AddError(kind, reason string, err error) {
	a.Add(Issue{Severity: SeverityError, Kind: kind, Reason: reason, Message: err.Error()})
}

// AddIncomplete records a kind that was skipped because its precondition was false.
func (a *Aggregate) AddIncomplete(kind, message string) {
	a.Add(Issue{Severity: SeverityIncomplete, Kind: kind, Reason: ReasonIncomplete, Message: message})
}

// AddNotReady records an active kind whose readiness postcondition does not hold.
func (a *Aggregate) AddNotReady(kind, message string) {
	a.Add(Issue{Severity: SeverityPostcondition, Kind: kind, Reason: ReasonNotReady, Message: message})
}

// AddRolling records a Deployment that has not finished rolling out.
func (a *Aggregate) AddRolling(name string) {
	a.rolling = append(a.rolling, name)
}

// Incomplete reports whether any kind was skipped this pass.
func (a *Aggregate) Incomplete() bool {
	for _, issue := range a.issues {
		if issue.Severity == SeverityIncomplete {
			return true
		}
	}
	return false
}

// Errors returns the recorded error issues in insertion order.
func (a *Aggregate) Errors() []Issue {
	var out []Issue
	for _, issue := range a.issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Worst returns the single worst outstanding issue. Ties keep the first recorded
// issue so the result follows the fixed dependency order.
func (a *Aggregate) Worst() (Issue, bool) {
	var worst Issue
	found := false
	for _, issue := range a.issues {
		if !found || issue.Severity > worst.Severity {
			worst = issue
			found = true
		}
	}
	return worst, found
}

// Apply folds the aggregate into the Trustify status conditions.
func (a *Aggregate) Apply(conditions *[]metav1.Condition, generation int64) {
	if errs := a.Errors(); len(errs) > 0 {
		True(conditions, generation, string(trustifyv1alpha1.ConditionHasErrors), errs[0].Reason, joinMessages(errs))
	} else {
		False(conditions, generation, string(trustifyv1alpha1.ConditionHasErrors), ReasonNoErrors, "No errors")
	}

	if worst, ok := a.Worst(); ok {
		False(conditions, generation, string(trustifyv1alpha1.ConditionReady), worst.Reason, fmt.Sprintf("%s: %s", worst.Kind, worst.Message))
	} else {
		True(conditions, generation, string(trustifyv1alpha1.ConditionReady), ReasonReady, "All managed objects are ready")
	}

	if len(a.rolling) > 0 {
		names := append([]string(nil), a.rolling...)
		sort.Strings(names)
		True(conditions, generation, string(trustifyv1alpha1.ConditionRollingUpdate), ReasonRollingUpdate,
			"Rolling out: "+strings.Join(names, ", "))
	} else {
		False(conditions, generation, string(trustifyv1alpha1.ConditionRollingUpdate), ReasonRolledOut, "No rollout in progress")
	}
}

func joinMessages(issues []Issue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Kind, issue.Message))
	}
	return strings.Join(parts, "; ")
}

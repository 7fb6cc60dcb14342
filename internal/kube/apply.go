// Package kube provides the apply engine used by every resolver: no-op suppressed
// create/update, drift correction and stale-slot cleanup.
package kube

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/selection"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	trustifyv1alpha1 "github.com/trustification/trustify-operator/api/v1alpha1"
	"github.com/trustification/trustify-operator/internal/conditions"
	"github.com/trustification/trustify-operator/internal/constants"
	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/logging"
	"github.com/trustification/trustify-operator/internal/revision"
)

// Operation is what the apply engine did with an object.
type Operation string

const (
	OperationCreate    Operation = "create"
	OperationUpdate    Operation = "update"
	OperationDelete    Operation = "delete"
	OperationUnchanged Operation = "unchanged"
)

// OperationRecorder is notified of every write.
type OperationRecorder func(kind conditions.Kind, op Operation)

// Applier writes managed objects on behalf of a Trustify resource.
type Applier struct {
	client   client.Client
	scheme   *runtime.Scheme
	recorder OperationRecorder
}

// NewApplier returns an Applier. recorder may be nil.
func NewApplier(c client.Client, scheme *runtime.Scheme, recorder OperationRecorder) *Applier {
	return &Applier{client: c, scheme: scheme, recorder: recorder}
}

// Client returns the underlying client for read-only lookups.
func (a *Applier) Client() client.Client {
	return a.client
}

// ApplyOptions tune a single Apply call.
type ApplyOptions struct {
	// CreateOnly leaves an existing object untouched. Used for generated credentials,
	// self-issued certificates and the one-shot realm import.
	CreateOnly bool
}

// Apply creates desired or updates the existing object when its content revision
// changed or the stored object drifted from desired. It returns the object as
// stored by the API server.
func (a *Applier) Apply(ctx context.Context, logger logr.Logger, owner *trustifyv1alpha1.Trustify, kind conditions.Kind, desired client.Object, opts ApplyOptions) (client.Object, Operation, error) {
	desired.SetLabels(mergeStrings(desired.GetLabels(), kind.Labels(owner)))
	if err := controllerutil.SetControllerReference(owner, desired, a.scheme); err != nil {
		return nil, "", fmt.Errorf("failed to set owner reference on %s %s: %w", kind, desired.GetName(), err)
	}

	rev, err := revision.Of(desired)
	if err != nil {
		return nil, "", err
	}
	desired.SetAnnotations(mergeStrings(desired.GetAnnotations(), map[string]string{constants.AnnotationDesiredRevision: rev}))

	existing := newEmpty(desired)
	err = a.client.Get(ctx, client.ObjectKeyFromObject(desired), existing)
	switch {
	case apierrors.IsNotFound(err):
		if err := a.client.Create(ctx, desired, client.FieldOwner(constants.FieldOwner)); err != nil {
			return nil, "", operatorerrors.WrapKubernetesAPI(fmt.Errorf("failed to create %s %s/%s: %w", kind, desired.GetNamespace(), desired.GetName(), err))
		}
		a.record(logger, kind, desired, OperationCreate)
		return desired, OperationCreate, nil
	case err != nil:
		return nil, "", operatorerrors.WrapKubernetesAPI(fmt.Errorf("failed to get %s %s/%s: %w", kind, desired.GetNamespace(), desired.GetName(), err))
	}

	if _, err := conditions.IdentityMatcher(existing, owner, desired.GetName()); err != nil {
		return nil, "", err
	}
	if opts.CreateOnly {
		logger.V(1).Info("Create-only object already present", "kind", kind.String(), "name", desired.GetName())
		return existing, OperationUnchanged, nil
	}

	revisionMatches := existing.GetAnnotations()[constants.AnnotationDesiredRevision] == rev
	desired.SetResourceVersion(existing.GetResourceVersion())
	desired.SetLabels(mergeStrings(existing.GetLabels(), desired.GetLabels()))
	desired.SetAnnotations(mergeStrings(existing.GetAnnotations(), desired.GetAnnotations()))
	preserveServerFields(existing, desired)

	if revisionMatches && !drifted(desired, existing) {
		logger.V(1).Info("Managed object up to date", "kind", kind.String(), "name", desired.GetName())
		return existing, OperationUnchanged, nil
	}
	if revisionMatches {
		logger.Info("Correcting drift on managed object", "kind", kind.String(), "name", desired.GetName())
	}

	if err := a.client.Update(ctx, desired, client.FieldOwner(constants.FieldOwner)); err != nil {
		return nil, "", operatorerrors.WrapKubernetesAPI(fmt.Errorf("failed to update %s %s/%s: %w", kind, desired.GetNamespace(), desired.GetName(), err))
	}
	a.record(logger, kind, desired, OperationUpdate)
	return desired, OperationUpdate, nil
}

// drifted reports whether existing no longer carries everything desired sets.
// Fields left unset in desired are owned by the API server and ignored.
func drifted(desired, existing client.Object) bool {
	if !equality.Semantic.DeepDerivative(desired.GetLabels(), existing.GetLabels()) {
		return true
	}
	switch want := desired.(type) {
	case *corev1.ConfigMap:
		have := existing.(*corev1.ConfigMap)
		return !equality.Semantic.DeepEqual(want.Data, have.Data) ||
			!equality.Semantic.DeepEqual(want.BinaryData, have.BinaryData)
	case *corev1.Secret:
		return !equality.Semantic.DeepEqual(want.Data, existing.(*corev1.Secret).Data)
	}
	want := reflect.ValueOf(desired).Elem().FieldByName("Spec")
	have := reflect.ValueOf(existing).Elem().FieldByName("Spec")
	if !want.IsValid() || !have.IsValid() {
		return false
	}
	return !equality.Semantic.DeepDerivative(want.Interface(), have.Interface())
}

// DeleteStale removes objects of kind owned by owner whose name differs from keep.
// list must be an empty list of the kind's object type.
func (a *Applier) DeleteStale(ctx context.Context, logger logr.Logger, owner *trustifyv1alpha1.Trustify, kind conditions.Kind, list client.ObjectList, keep string) error {
	selector, err := kindSelector(owner, kind)
	if err != nil {
		return err
	}
	if err := a.client.List(ctx, list, client.InNamespace(owner.Namespace), client.MatchingLabelsSelector{Selector: selector}); err != nil {
		if operatorerrors.IsCRDMissingError(err) {
			return nil
		}
		return operatorerrors.WrapKubernetesAPI(fmt.Errorf("failed to list %s: %w", kind, err))
	}

	items, err := meta.ExtractList(list)
	if err != nil {
		return fmt.Errorf("failed to extract %s list: %w", kind, err)
	}
	for _, item := range items {
		obj, ok := item.(client.Object)
		if !ok {
			continue
		}
		match, _ := conditions.IdentityMatcher(obj, owner, keep)
		if match != conditions.MatchStale || !isControlledBy(obj, owner) {
			continue
		}
		if err := a.delete(ctx, logger, kind, obj); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) delete(ctx context.Context, logger logr.Logger, kind conditions.Kind, obj client.Object) error {
	if err := a.client.Delete(ctx, obj, client.PropagationPolicy(metav1.DeletePropagationBackground)); err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return operatorerrors.WrapKubernetesAPI(fmt.Errorf("failed to delete %s %s/%s: %w", kind, obj.GetNamespace(), obj.GetName(), err))
	}
	a.record(logger, kind, obj, OperationDelete)
	return nil
}

func (a *Applier) record(logger logr.Logger, kind conditions.Kind, obj client.Object, op Operation) {
	logger.Info("Managed object "+string(op)+"d", "kind", kind.String(), "name", obj.GetName())
	logging.LogAuditEvent(logger, string(op), map[string]string{
		"kind":      kind.String(),
		"namespace": obj.GetNamespace(),
		"name":      obj.GetName(),
	})
	if a.recorder != nil {
		a.recorder(kind, op)
	}
}

// kindSelector matches the role labels of kind. Kinds without a variant exclude
// objects carrying any variant label.
func kindSelector(owner *trustifyv1alpha1.Trustify, kind conditions.Kind) (labels.Selector, error) {
	selector := labels.SelectorFromSet(kind.SelectorLabels(owner))
	if kind.Variant == conditions.VariantNone {
		req, err := labels.NewRequirement(constants.LabelComponentVariant, selection.DoesNotExist, nil)
		if err != nil {
			return nil, err
		}
		selector = selector.Add(*req)
	}
	return selector, nil
}

func isControlledBy(obj client.Object, owner *trustifyv1alpha1.Trustify) bool {
	ref := metav1.GetControllerOf(obj)
	return ref != nil && ref.UID == owner.UID
}

func newEmpty(obj client.Object) client.Object {
	return reflect.New(reflect.TypeOf(obj).Elem()).Interface().(client.Object)
}

// preserveServerFields copies fields assigned by the API server or immutable after
// creation from existing into desired.
func preserveServerFields(existing, desired client.Object) {
	switch want := desired.(type) {
	case *corev1.Service:
		have := existing.(*corev1.Service)
		if want.Spec.ClusterIP == "" {
			want.Spec.ClusterIP = have.Spec.ClusterIP
			want.Spec.ClusterIPs = have.Spec.ClusterIPs
		}
		if len(want.Spec.IPFamilies) == 0 {
			want.Spec.IPFamilies = have.Spec.IPFamilies
			want.Spec.IPFamilyPolicy = have.Spec.IPFamilyPolicy
		}
	case *corev1.PersistentVolumeClaim:
		have := existing.(*corev1.PersistentVolumeClaim)
		request := want.Spec.Resources.Requests[corev1.ResourceStorage]
		spec := *have.Spec.DeepCopy()
		if !request.IsZero() && request.Cmp(have.Spec.Resources.Requests[corev1.ResourceStorage]) > 0 {
			if spec.Resources.Requests == nil {
				spec.Resources.Requests = corev1.ResourceList{}
			}
			spec.Resources.Requests[corev1.ResourceStorage] = request
		}
		want.Spec = spec
	}
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

package conditions

import (
	"reflect"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

type observedKey struct {
	typ  reflect.Type
	name string
}

// Observed is the snapshot of managed objects seen during one pass. Objects are
// recorded as the scheduler applies or reads them, so later kinds see the most
// recent state of earlier ones.
type Observed struct {
	objects map[observedKey]client.Object
}

// NewObserved returns an empty snapshot.
func NewObserved() *Observed {
	return &Observed{objects: map[observedKey]client.Object{}}
}

// Record stores obj under its type and name.
func (o *Observed) Record(obj client.Object) {
	o.objects[observedKey{typ: reflect.TypeOf(obj), name: obj.GetName()}] = obj
}

// Lookup returns the recorded object of type T with the given name.
func Lookup[T client.Object](o *Observed, name string) (T, bool) {
	var zero T
	obj, ok := o.objects[observedKey{typ: reflect.TypeFor[T](), name: name}]
	if !ok {
		return zero, false
	}
	typed, ok := obj.(T)
	return typed, ok
}

package value

import "reflect"

// sliceAddr and pairSliceAddr return the backing-array address of a slice,
// used only as a transient "currently being visited" identity key for
// cycle detection (§4.2, §9 "transient visited-set keyed on container
// identity"). Never compared for value equality.
func sliceAddr(s []Value) uintptr {
	return reflect.ValueOf(s).Pointer()
}

func pairSliceAddr(s []pair) uintptr {
	return reflect.ValueOf(s).Pointer()
}

package types

import "math"

func AddUint64Checked(a uint64, b uint64, field string) (uint64, error) {
	if a > ^uint64(0)-b {
		return 0, ErrArithmetic.Wrapf("%s overflows uint64", field)
	}
	return a + b, nil
}

func MulUint64Checked(a uint64, b uint64, field string) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > ^uint64(0)/b {
		return 0, ErrArithmetic.Wrapf("%s overflows uint64", field)
	}
	return a * b, nil
}

func IncUint32Checked(a uint32, field string) (uint32, error) {
	if a == math.MaxUint32 {
		return 0, ErrArithmetic.Wrapf("%s overflows uint32", field)
	}
	return a + 1, nil
}

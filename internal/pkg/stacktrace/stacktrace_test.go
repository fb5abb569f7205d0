package stacktrace

import (
	"reflect"
	"testing"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/gatepass/internal/pkg/goroutine.recoverTask({0x1, 0x2})
	/src/gatepass/internal/pkg/goroutine/goroutine.go:91 +0x45
panic({0x3, 0x4})
	/usr/local/go/src/runtime/panic.go:792 +0x132
github.com/shandysiswandi/gatepass/internal/terminal/usecase.(*Usecase).persist.func1()
	/src/gatepass/internal/terminal/usecase/usecase.go:151
`)

	got := InternalPaths(stack)

	want := []string{
		"internal/pkg/goroutine/goroutine.go:91",
		"internal/terminal/usecase/usecase.go:151",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("InternalPaths = %v, want %v", got, want)
	}
}

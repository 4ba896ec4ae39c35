//go:build llama

package manager

// cgo link directives for the in-process engine.
// - rpath $ORIGIN so the runtime loader finds libllama.so and libggml*.so in
//   the same directory as the built binary (./bin).
// - -L${SRCDIR}/../../bin so the linker finds libllama.so when building the
//   'llama' variant. No environment variables required.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"

package generator

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const roundTripBlock = `extern "C" {
    /// Fails with a formatted message when code is not zero.
    pub fn fail_with(code: c_int) -> c_int;
    pub fn scale(res: c_int, tag: c_int) -> c_int;
    pub fn reset(res: *mut c_int);
}
`

const roundTripHeader = `[[noreturn]] void raise_error(int code);

int fail_with(int code);
int scale(int res, int tag);
void reset(int *res);
`

const roundTripStub = `extern "C" {
#include "stub.h"

int fail_with(int code) {
    if (code != 0) {
        raise_error(code);
    }
    return 42;
}

int scale(int res, int tag) {
    return res * 10 + tag;
}

void reset(int *res) {
    *res = 0;
}
}
`

// The error handler lives on the binding side, as libjpeg's error_exit
// does: it formats the message with the Rust allocator and hands the
// buffer to the native throw helper.
const roundTripMain = `use std::os::raw::c_int;

include!("unwind_ffi.rs");

#[no_mangle]
pub extern "C-unwind" fn raise_error(code: c_int) -> ! {
    let msg = format!("Bogus marker length {} \u{fc}\t\u{1f600} [x]", code);
    let mut bytes = std::mem::ManuallyDrop::new(msg.into_bytes());
    unsafe { ffi_unwind_throw(bytes.as_mut_ptr(), bytes.len(), bytes.capacity()) }
}

fn main() {
    std::panic::set_hook(Box::new(|_| {}));

    unsafe {
        println!("ok {}", fail_with(0));
        println!("scale {}", scale(3, 4));
        let mut v: c_int = 9;
        reset(&mut v);
        println!("reset {}", v);
    }

    let err = std::panic::catch_unwind(|| unsafe { fail_with(7) }).unwrap_err();
    let msg = err.downcast_ref::<String>().expect("panic payload is not a String");
    print!("panic <{}>", msg);
}
`

// TestGeneratedWrappersRoundTrip builds both generated files with the
// system toolchains, throws from native code and checks the binding side
// panics with exactly the message bytes.
func TestGeneratedWrappersRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles native and binding code")
	}

	gxx, err := exec.LookPath("g++")
	if err != nil {
		t.Skip("g++ not found")
	}
	rustc, err := exec.LookPath("rustc")
	if err != nil {
		t.Skip("rustc not found")
	}
	ar, err := exec.LookPath("ar")
	if err != nil {
		t.Skip("ar not found")
	}

	opts := quietOptions()
	opts.Includes = []string{"stub.h"}
	binding, native := generate(t, roundTripBlock, opts)

	dir := t.TempDir()
	for name, content := range map[string]string{
		opts.BindingFile: binding,
		opts.NativeFile:  native,
		"stub.h":         roundTripHeader,
		"stub.cpp":       roundTripStub,
		"main.rs":        roundTripMain,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	run := func(name string, args ...string) {
		t.Helper()

		cmd := exec.Command(name, args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("%s %v: %v\n%s", filepath.Base(name), args, err, out)
		}
	}

	run(gxx, "-fexceptions", "-c", "stub.cpp", "-o", "stub.o")
	run(gxx, "-fexceptions", "-c", opts.NativeFile, "-o", "wrappers.o")
	run(ar, "rcs", "libwrappers.a", "stub.o", "wrappers.o")
	run(rustc, "--edition", "2021", "-A", "warnings", "-o", "roundtrip", "main.rs",
		"-L", dir, "-l", "static=wrappers", "-l", "dylib=stdc++")

	cmd := exec.Command(filepath.Join(dir, "roundtrip"))
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("running roundtrip: %v\n%s", err, out)
	}

	want := "ok 42\nscale 34\nreset 0\npanic <Bogus marker length 7 ü\t\U0001F600 [x]>"
	if string(out) != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

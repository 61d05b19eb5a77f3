package common

import "testing"

// *testing.T satisfies Logger via its own Logf method, so a test can
// install itself with SetLogger(t) and restore silence with SetLogger(nil).
func TestSetLoggerRoutesDiagnosticsToInstalledLogger(t *testing.T) {
	SetLogger(t)
	defer SetLogger(nil)

	Logf("test diagnostic: %d", 42)
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	SetLogger(t)
	SetLogger(nil)

	if _, ok := log.(*dummyLogger); !ok {
		t.Fatalf("SetLogger(nil) did not restore the dummy logger")
	}
}

func TestEnableLoggingInstallsStdlibLogger(t *testing.T) {
	EnableLogging()
	defer SetLogger(nil)

	if _, ok := log.(*stdlibLogger); !ok {
		t.Fatalf("EnableLogging() did not install the stdlib logger")
	}
}

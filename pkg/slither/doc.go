// Package slither provides an embeddable gait controller for a snake robot.
//
// The controller streams joint-angle frames for one gait at a time to a
// motor controller over TCP or a serial line, and sends one-shot pose
// commands to a second endpoint. It can be used through the slither CLI or
// embedded as a library.
//
// # Basic Usage
//
//	cfg := slither.Config{
//	    MotorEndpoint: "192.168.4.1:8080",
//	    PoseEndpoint:  "192.168.4.2:8080",
//	}
//
//	ctrl, err := slither.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := ctrl.Start(slither.Serpentine); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... until the operator says stop ...
//
//	if err := ctrl.Stop(); err != nil {
//	    log.Printf("stop: %v", err)
//	}
//
// # Sessions
//
// At most one session runs at any instant. [Controller.Start] returns
// [ErrAlreadyRunning] while a session is Running or Stopping, and the
// refused call has no effect. [Controller.Stop] only requests the stop; the
// session exits within one tick. Use [Controller.Wait] to block until the
// link is closed and the controller is Idle again.
//
// A link failure ends the session and returns the controller to Idle. The
// failure is reported through [EventHandler.OnSessionEnded]; nothing is
// retried.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op
// defaults) and pass it via [WithEventHandler]. Events are called
// synchronously and should return quickly.
//
// # Dependency Injection
//
// Tests can replace the transport and the clock:
//
//	ctrl, err := slither.New(cfg,
//	    slither.WithDialer(fakeDialer),
//	    slither.WithClock(clock.NewMock(time.Unix(0, 0))),
//	)
package slither

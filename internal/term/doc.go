// Package term renders the monitor's outputs on a terminal.
//
// It stands in for the physical drivers when the monitor runs on a
// workstation: [Display] for the character display, [Strip] for the
// addressable light strip, [LED] for the indicator and [Actuators] for the
// relays. Styling uses lipgloss; colours degrade to plain text when the
// writer is not a colour terminal.
package term

package pty

// EchoDisabled reports whether the child's terminal currently has echo off.
// It is false when the controller is not running.
func (c *Controller) EchoDisabled() bool {
	master, err := c.activeMaster()
	if err != nil {
		return false
	}
	return IsEchoDisabled(master)
}

// SecretInputMode reports whether the child is reading a hidden line, such
// as a password prompt.
func (c *Controller) SecretInputMode() bool {
	master, err := c.activeMaster()
	if err != nil {
		return false
	}
	return IsSecretInputMode(master)
}

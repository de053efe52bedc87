// logingate — trust-gated login script execution.
// Runs administrator-installed scripts at session setup after verifying
// the full path chain is root-owned and tamper-proof.
package main

import "github.com/polofsson/logingate/internal/cli"

func main() {
	cli.Execute()
}

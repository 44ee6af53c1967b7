/*
Copyright © 2026 JACOB ARTHURS
*/
package main

import "github.com/jacobarthurs/pgplandot/cmd"

func main() {
	cmd.Execute()
}

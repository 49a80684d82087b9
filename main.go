/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "vault-ops/cmd"

func main() {
	cmd.Execute()
}

// Command jdeserialize decodes a Java object serialization stream and
// prints or extracts parts of its content graph.
package main

import "github.com/bochkov/jdeserialize/cmd"

func main() {
	cmd.Execute()
}

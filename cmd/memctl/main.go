// Command memctl exercises the memkit pool and guarded allocators from the
// command line.
package main

func main() {
	execute()
}

// Package hcl loads pipeline definitions written in HCL into compiler
// sections. Top-level blocks are read in source order, so the order of
// `step`, `parallel` and `graph` blocks in a file is the order the compiler
// chains them in.
//
//	step "approval" "a1" {
//	  group = "STAGE"
//	}
//
//	parallel {
//	  step "shell" "p1" { parameters = { cmd = "make test" } }
//	  step "shell" "p2" {}
//	}
//
//	graph {
//	  step "shell" "build" {}
//	  step "shell" "ship"  { depends_on = ["build"] }
//	}
package hcl

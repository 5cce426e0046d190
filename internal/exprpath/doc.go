// internal/exprpath/doc.go

/*
Package exprpath parses the dotted path expressions templates use to reach
other steps' values, e.g. `stage.currentStatus`, `a.b.param` or
`d[1].e.param`.

A path is a sequence of segments. Each segment is a name with an optional
non-negative index. Paths are parsed with the HCL traversal grammar, so any
valid HCL identifier is a valid segment name and `x["some key"]` addresses a
segment whose name is not an identifier. A path may be wrapped in the
template placeholder form `<+...>`.
*/
package exprpath

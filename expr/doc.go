/*
Package expr parses and evaluates small arithmetic formulas over fields.

A formula refers to datasets as #label# and may use numbers, the
constant pi, the operators + - * / and ^ (or **), parentheses, and the
functions abs, sqrt, exp, log, sin, cos, tan, min and max. Evaluation is
elementwise over tensor fields. Nothing else can be expressed, so a
formula read from a job file can not run arbitrary code.

	e, err := expr.Parse("#sigma#/1e6 + 2*#p_sigma#")
	...
	out, err := e.Eval(map[string]*tensor.Field{"sigma": sigma, "p_sigma": p})
*/
package expr

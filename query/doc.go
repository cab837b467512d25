// Package query compiles the compact expression strings analysts use to
// describe derived quantities and cuts into immutable descriptors.
//
// An expression is a list of segments separated by '/'. Each segment has
// a prefix naming what it configures:
//
//	f:n=Pt                       function (mandatory)
//	p:n=e,wp=t,i=1               particle operand, '~' separates two operands
//	c:n=bigger,v=30              cut operator and threshold
//	h:nxb=30,xl=0,xh=200         histogram output and its binning
//	t:                           tree column output
//	csv:                         CSV column output
//	yf:n=Eta/yp:n=e              function and particles of a 2D histogram's Y axis
//
// A leading bare word inside a clause is shorthand for n=, so "f:Pt" and
// "f:n=Pt" are equivalent. A segment without a prefix is shorthand for a
// function and its operands, e.g. "pt_e1" or "n_bj_m".
//
// Example usage:
//
//	c := query.NewCompiler(query.DefaultTables())
//	d, err := c.CompileCut("f:n=Pt/p:n=e,wp=t,i=1/c:n=bigger,v=30")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(d.CutLabel()) // p_{T}(e_{1}^{tight}) [GeV] > 30
package query

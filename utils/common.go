package utils

const (
	NODETOL = 1.e-12
	// BigNumber is the penalty weight used to impose Dirichlet data through boundary integrals
	BigNumber = 1.e12
)

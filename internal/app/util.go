package app

// pickEnv returns prod or beta depending on the environment.
func pickEnv(isProd bool, prod, beta string) string {
	if isProd {
		return prod
	}
	return beta
}

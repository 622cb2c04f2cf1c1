package checks

import "strings"

func init() {
	for _, group := range [][]Check{
		structureChecks,
		securityChecks,
		validationChecks,
		styleChecks,
		performanceChecks,
	} {
		for _, c := range group {
			c.Group, _, _ = strings.Cut(c.ID, "/")
			MustRegister(c)
		}
	}
}

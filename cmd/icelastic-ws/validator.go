package main

import (
	log "github.com/sirupsen/logrus"
)

type stringValidator struct {
	values  []string
	invalid bool
	prefix  string
}

func (v *stringValidator) setPrefix(prefix string) {
	v.prefix = prefix
}

func (v *stringValidator) requireValue(value string, label string) {
	if value == "" {
		log.Errorf("[VALIDATE] %smissing %s", v.prefix, label)
		v.invalid = true
		return
	}

	v.values = append(v.values, value)
}

func (v *stringValidator) requireOneOf(value string, label string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			v.values = append(v.values, value)
			return
		}
	}

	log.Errorf("[VALIDATE] %sinvalid %s: [%s] (allowed: %v)", v.prefix, label, value, allowed)
	v.invalid = true
}

func (v *stringValidator) requirePositive(value int, label string) {
	if value <= 0 {
		log.Errorf("[VALIDATE] %s%s must be positive, got %d", v.prefix, label, value)
		v.invalid = true
	}
}

func (v *stringValidator) Values() []string {
	return v.values
}

func (v *stringValidator) Invalid() bool {
	return v.invalid
}

package config

import (
	"os"
	"strconv"
)

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

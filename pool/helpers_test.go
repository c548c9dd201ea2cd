package pool

import "github.com/joshuapare/memkit/config"

func configWithCheck(check bool) config.Config {
	c := config.Default()
	c.CheckDoubleRelease = check
	return c
}

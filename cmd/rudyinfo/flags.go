package rudyinfo

import "github.com/spf13/viper"

func viperGetBool(key string) bool { return viper.GetBool(key) }
func viperGetInt(key string) int   { return viper.GetInt(key) }

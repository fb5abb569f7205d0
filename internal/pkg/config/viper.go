package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrConfigType is returned when NewViperFromBytes gets no config type.
var ErrConfigType = errors.New("config type is required")

// Viper is a Config implementation backed by github.com/spf13/viper.
//
// Environment variables override file values; the key "door.api_key" is read
// from DOOR_API_KEY.
type Viper struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// NewViper loads configuration from the given file path and watches it for
// changes. The file type is inferred from the extension.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory.
// configType is any format supported by viper ("yaml", "json", ...).
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, ErrConfigType
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func (vc *Viper) GetInt(key string) int { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32 { return vc.v.GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64 { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint(key string) uint { return vc.v.GetUint(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }
func (vc *Viper) GetBool(key string) bool { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }

func (vc *Viper) GetMillisecond(key string) time.Duration { return vc.unit(key, time.Millisecond) }
func (vc *Viper) GetSecond(key string) time.Duration { return vc.unit(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.unit(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration { return vc.unit(key, time.Hour) }
func (vc *Viper) GetDay(key string) time.Duration { return vc.unit(key, 24*time.Hour) }

func (vc *Viper) unit(key string, d time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * d
}

// GetBinary returns the value for key decoded from base64.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}

	return data
}

// GetArray returns the value for key split by commas.
func (vc *Viper) GetArray(key string) []string {
	var out []string
	for item := range strings.SplitSeq(vc.v.GetString(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

// GetMap returns the value for key parsed from "k:v,k:v" pairs.
func (vc *Viper) GetMap(key string) map[string]string {
	m := make(map[string]string)
	for _, pair := range vc.GetArray(key) {
		k, v, ok := strings.Cut(pair, ":")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if ok && k != "" {
			m[k] = v
		}
	}

	return m
}

// Close implements io.Closer. Viper holds nothing that needs releasing.
func (vc *Viper) Close() error {
	return nil
}

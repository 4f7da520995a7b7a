package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const outcomesPath = "./data/outcomes.jsonl"

// PurchaseConfig holds configuration for the buy command.
type PurchaseConfig struct {
	Config
	EventID  string
	Quantity uint64
}

// LoadPurchase merges config file, environment variables, and flags into PurchaseConfig.
func LoadPurchase(cfgFile string, flags *pflag.FlagSet) (PurchaseConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("quantity", uint64(1))
		v.SetDefault("out", outcomesPath)
	})
	if err != nil {
		return PurchaseConfig{}, err
	}
	return PurchaseConfig{
		Config:   fromViper(v),
		EventID:  v.GetString("event"),
		Quantity: v.GetUint64("quantity"),
	}, nil
}

// CreateConfig holds configuration for the create command. Form values stay
// raw strings; the submission flow validates them.
type CreateConfig struct {
	Config
	Name        string
	Description string
	Image       string
	Date        string
	Time        string
	Price       string
	Capacity    string
}

// LoadCreate merges config file, environment variables, and flags into CreateConfig.
func LoadCreate(cfgFile string, flags *pflag.FlagSet) (CreateConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("out", outcomesPath)
	})
	if err != nil {
		return CreateConfig{}, err
	}
	return CreateConfig{
		Config:      fromViper(v),
		Name:        v.GetString("name"),
		Description: v.GetString("description"),
		Image:       v.GetString("image"),
		Date:        v.GetString("date"),
		Time:        v.GetString("time"),
		Price:       v.GetString("price"),
		Capacity:    v.GetString("capacity"),
	}, nil
}

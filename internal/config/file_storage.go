package config

// StorageConfig selects the object store raw webhook bodies are archived to.
type StorageConfig struct {
	Provider string              `yaml:"provider"`
	Local    *LocalStorageConfig `yaml:"local"`
	AWS      *AWSStorageConfig   `yaml:"aws"`
	GCP      *GCPStorageConfig   `yaml:"gcp"`
}

type LocalStorageConfig struct {
	BasePath string `yaml:"base_path"`
}

type AWSStorageConfig struct {
	Region         string `yaml:"region"`
	Bucket         string `yaml:"bucket"`
	AWSCredentials `yaml:",inline"`
}

type GCPStorageConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
}

// AWSCredentials are optional static keys. When either is empty the default
// AWS credential chain is used.
type AWSCredentials struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

func (c AWSCredentials) IsStatic() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func loadAWSCredentials() AWSCredentials {
	return AWSCredentials{
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		Provider: getEnv("STORAGE_PROVIDER", "local"),
		Local: &LocalStorageConfig{
			BasePath: getEnv("STORAGE_LOCAL_PATH", "./data/webhooks"),
		},
		AWS: &AWSStorageConfig{
			Region:         getEnv("AWS_S3_REGION", "us-east-1"),
			Bucket:         getEnv("AWS_S3_BUCKET", ""),
			AWSCredentials: loadAWSCredentials(),
		},
		GCP: &GCPStorageConfig{
			Bucket:          getEnv("GCP_STORAGE_BUCKET", ""),
			CredentialsFile: getEnv("GCP_CREDENTIALS_FILE", ""),
		},
	}
}

// Command genkeys generates the Ed25519 key pair used to sign login tokens.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	privPath := flag.String("private", "private_key.pem", "output path for the private key")
	pubPath := flag.String("public", "public_key.pem", "output path for the public key")
	force := flag.Bool("force", false, "overwrite existing key files")
	flag.Parse()

	if !*force {
		for _, path := range []string{*privPath, *pubPath} {
			if _, err := os.Stat(path); err == nil {
				log.Fatalf("%s already exists, re-run with -force to overwrite", path)
			}
		}
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Fatalf("generate key pair: %v", err)
	}

	if err := writeKey(*privPath, "PRIVATE KEY", mustMarshal(x509.MarshalPKCS8PrivateKey(priv)), 0o600); err != nil {
		log.Fatalf("write private key: %v", err)
	}
	if err := writeKey(*pubPath, "PUBLIC KEY", mustMarshal(x509.MarshalPKIXPublicKey(pub)), 0o644); err != nil {
		log.Fatalf("write public key: %v", err)
	}

	fmt.Printf("wrote %s and %s\n", *privPath, *pubPath)
}

func mustMarshal(der []byte, err error) []byte {
	if err != nil {
		log.Fatalf("marshal key: %v", err)
	}
	return der
}

func writeKey(path, blockType string, der []byte, mode os.FileMode) error {
	block := &pem.Block{Type: blockType, Bytes: der}
	return os.WriteFile(path, pem.EncodeToMemory(block), mode)
}

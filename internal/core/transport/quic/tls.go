package quic

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"
)

// DefaultALPN 默认应用层协议
const DefaultALPN = "netbind-quic"

// certValidity 自签名证书有效期
const certValidity = 180 * 24 * time.Hour

// NewSelfSignedTLSConfig 生成自签名的服务端与客户端 TLS 配置
//
// 两端共用同一张 Ed25519 证书（双向 TLS）。没有 CA 可以验证自签名证书，
// 标准链验证被关闭，由 verifyPeerCertificate 检查证书可解析且在有效期内。
// alpn 为空时使用 DefaultALPN。
func NewSelfSignedTLSConfig(alpn ...string) (server *tls.Config, client *tls.Config, err error) {
	if len(alpn) == 0 {
		alpn = []string{DefaultALPN}
	}

	cert, err := generateCertificate()
	if err != nil {
		return nil, nil, err
	}

	server = &tls.Config{
		Certificates:          []tls.Certificate{cert},
		NextProtos:            alpn,
		InsecureSkipVerify:    true,
		ClientAuth:            tls.RequireAnyClientCert,
		VerifyPeerCertificate: verifyPeerCertificate,
		MinVersion:            tls.VersionTLS13,
	}
	client = server.Clone()
	client.ClientAuth = tls.NoClientCert
	return server, client, nil
}

func generateCertificate() (tls.Certificate, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("生成密钥失败: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("生成序列号失败: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"go-netbind"},
			CommonName:   "netbind quic endpoint",
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("创建证书失败: %w", err)
	}

	return tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  priv,
	}, nil
}

// verifyPeerCertificate 验证对端证书可解析且在有效期内
func verifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return fmt.Errorf("对端未提供证书")
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return fmt.Errorf("解析证书失败: %w", err)
	}

	now := time.Now()
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("证书尚未生效: NotBefore=%v", cert.NotBefore)
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("证书已过期: NotAfter=%v", cert.NotAfter)
	}
	return nil
}

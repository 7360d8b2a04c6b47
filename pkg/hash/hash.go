// Package hash 封装了基于 bcrypt 的哈希与校验，用于密码和 OTP 验证码。
package hash

import "golang.org/x/crypto/bcrypt"

// HashPassword 对明文进行 bcrypt 哈希。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash 校验明文与 bcrypt 哈希是否匹配。
func CheckPasswordHash(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

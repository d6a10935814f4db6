package model

import "time"

/*

User is the identity record for a signed-in account

Id: primary key, the identity provider's subject (sub)
CreatedAt: time when entity is created, set once at first sign-in

Name: display name from the identity provider
Email: contact email, mutable
PhoneNumber: optional contact phone, mutable
AvatarUrl: optional avatar image url

Everything except the contact fields is immutable after first sign-in.

*/

type User struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	Name        string
	Email       string
	PhoneNumber string
	AvatarUrl   string
}

// SPDX-License-Identifier: GPL-3.0-only

package rabbitmq

type Config struct {
	AMQPURL string
}
